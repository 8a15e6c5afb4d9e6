// Package validation collects field-keyed validation errors and wraps
// struct-tag validation so that every problem is reported at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate is a singleton validator instance that names fields after
// their JSON tags, so error paths match the exported document.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Form-style string settings treat whitespace as empty.
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
}

// FieldErrors maps a dotted field path to a human-readable message. The
// zero value is not usable; create one with make or New.
type FieldErrors map[string]string

// New returns an empty FieldErrors.
func New() FieldErrors { return FieldErrors{} }

// Add records msg for field. The first message recorded for a field wins.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; ok {
		return
	}
	fe[field] = msg
}

// Addf is Add with formatting.
func (fe FieldErrors) Addf(field, format string, args ...any) {
	fe.Add(field, fmt.Sprintf(format, args...))
}

// Merge copies every entry of other into fe under prefix.
func (fe FieldErrors) Merge(prefix string, other FieldErrors) {
	for k, v := range other {
		fe.Add(join(prefix, k), v)
	}
}

// Fields returns the failing field paths in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Error implements error.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, k := range fe.Fields() {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// AsFieldErrors extracts FieldErrors from err's chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Struct runs tag validation on v and returns the failures keyed by JSON
// path below prefix. A nil result means v is valid.
func Struct(prefix string, v any) FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	out := New()
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add(join(prefix, ""), err.Error())
		return out
	}
	for _, e := range verrs {
		out.Add(join(prefix, fieldPath(e.Namespace())), message(e))
	}
	return out
}

// Var validates a single value against tag.
func Var(v any, tag string) error {
	return validate.Var(v, tag)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ""
}

func join(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	}
	return prefix + "." + field
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if", "notblank":
		return "field is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must not exceed " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must not exceed " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "hostname_port":
		return "must be a host:port address"
	default:
		return fmt.Sprintf("validation failed (%s)", e.Tag())
	}
}
