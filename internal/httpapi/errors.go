package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/satnet-designer/codegen"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/validation"
)

// ErrBadRequest marks request bodies or parameters that cannot be read.
var ErrBadRequest = errors.New("bad request")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string                 `json:"error"`
	Fields validation.FieldErrors `json:"fields,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, codegen.ErrUnsupportedEncoding):
		return http.StatusBadRequest
	case errors.Is(err, codegen.ErrEmptyTopology),
		errors.Is(err, codegen.ErrUnroutedPort),
		errors.Is(err, codegen.ErrUnconnectedPort),
		errors.Is(err, codegen.ErrMissingConfig),
		errors.Is(err, codegen.ErrUnknownNodeType),
		errors.Is(err, codegen.ErrUnencodable):
		return http.StatusUnprocessableEntity
	default:
		if _, ok := validation.AsFieldErrors(err); ok {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{Error: err.Error()}
	if fe, ok := validation.AsFieldErrors(err); ok {
		body.Fields = fe
	}
	log := logging.FromContext(r.Context(), nil)
	if code >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", logging.Err(err))
	} else {
		log.Debug(r.Context(), "request rejected", logging.Int("status", code), logging.Err(err))
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
