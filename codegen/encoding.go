package codegen

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Supported output encodings. cp1251 is what GPSS World expects on
// Russian-locale installations.
const (
	EncodingUTF8   = "utf-8"
	EncodingCP1251 = "cp1251"
)

var (
	// ErrUnsupportedEncoding is returned for an encoding other than
	// EncodingUTF8 or EncodingCP1251.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrUnencodable is returned when the program has characters the
	// requested code page cannot represent.
	ErrUnencodable = errors.New("program text cannot be encoded")
)

// Encode converts program text to the named encoding.
func Encode(code, enc string) ([]byte, error) {
	switch strings.ToLower(enc) {
	case EncodingUTF8:
		return []byte(code), nil
	case EncodingCP1251:
		out, err := charmap.Windows1251.NewEncoder().String(code)
		if err != nil {
			return nil, fmt.Errorf("%w as %s: %v", ErrUnencodable, enc, err)
		}
		return []byte(out), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, enc)
	}
}
