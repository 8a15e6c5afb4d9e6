// Package httpapi serves GPSS program generation over HTTP. Requests carry
// a whole exported document; the service keeps no state between calls.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/satnet-designer/codegen"
	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
)

// fileNameLayout names downloaded programs after their generation date.
const fileNameLayout = "model-02-01-2006-15-04-05.gps.txt"

const defaultMaxBodyBytes = 4 << 20

// Server is an http.Handler exposing the generator routes.
type Server struct {
	router    chi.Router
	gen       *codegen.Generator
	metrics   *observability.Collector
	log       logging.Logger
	maxBody   int64
	encoding  string
	includeTS bool
}

// Option configures a Server.
type Option func(*Server)

// WithGenerator replaces the default code generator.
func WithGenerator(g *codegen.Generator) Option {
	return func(s *Server) {
		if g != nil {
			s.gen = g
		}
	}
}

// WithCollector records HTTP metrics on c and serves them on /metrics.
func WithCollector(c *observability.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithLogger sets the base request logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMaxBodyBytes caps request bodies. Non-positive values keep the
// default of 4 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithDefaultEncoding sets the gen-file encoding used when the request
// does not name one.
func WithDefaultEncoding(enc string) Option {
	return func(s *Server) {
		if enc != "" {
			s.encoding = strings.ToLower(enc)
		}
	}
}

// WithGenerationInfo makes /gpss/gen include the generation info section
// unless the request says otherwise.
func WithGenerationInfo(on bool) Option {
	return func(s *Server) { s.includeTS = on }
}

// NewServer builds the router.
func NewServer(opts ...Option) *Server {
	s := &Server{
		log:      logging.Noop(),
		maxBody:  defaultMaxBodyBytes,
		encoding: codegen.EncodingCP1251,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		var genOpts []codegen.Option
		genOpts = append(genOpts, codegen.WithLogger(s.log))
		if s.metrics != nil {
			genOpts = append(genOpts, codegen.WithDurationObserver(s.metrics.ObserveCodegen))
		}
		s.gen = codegen.New(genOpts...)
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(tracing)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/gpss", func(r chi.Router) {
		r.Post("/gen", s.handleGenerate)
		r.Post("/gen-file", s.handleGenerateFile)
		r.Post("/validate", s.handleValidate)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate returns the program as {code, genTime, genDate}. The
// include_time query parameter overrides the server default.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	include := s.includeTS
	if v := r.URL.Query().Get("include_time"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: include_time %q", ErrBadRequest, v))
			return
		}
		include = b
	}

	doc, err := s.decode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.gen.Generate(r.Context(), doc.Topology(), codegen.Options{IncludeGenerationInfo: include})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGenerateFile returns the program as an attachment, always with the
// generation info section.
func (s *Server) handleGenerateFile(w http.ResponseWriter, r *http.Request) {
	enc := strings.ToLower(r.URL.Query().Get("encoding"))
	if enc == "" {
		enc = s.encoding
	}
	if enc != codegen.EncodingUTF8 && enc != codegen.EncodingCP1251 {
		writeError(w, r, fmt.Errorf("%w: %q", codegen.ErrUnsupportedEncoding, enc))
		return
	}

	doc, err := s.decode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.gen.Generate(r.Context(), doc.Topology(), codegen.Options{IncludeGenerationInfo: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := codegen.Encode(res.Code, enc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spanFrom(r).SetAttributes(attribute.String("gpss.encoding", enc))

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+res.GenDate.Format(fileNameLayout))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// validateResponse carries the two error sets side by side.
type validateResponse struct {
	Valid bool `json:"valid"`
	core.DocumentErrors
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	doc, err := s.decode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	de := core.ValidateDocument(doc)
	spanFrom(r).SetAttributes(
		attribute.Int("topology_errors", len(de.Topology)),
		attribute.Int("gpss_errors", len(de.GPSS)),
	)
	writeJSON(w, http.StatusOK, validateResponse{Valid: de.Valid(), DocumentErrors: de})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (core.Document, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	doc, err := core.ReadDocument(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Document{}, err
		}
		return core.Document{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return doc, nil
}
