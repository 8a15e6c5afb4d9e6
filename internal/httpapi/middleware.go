package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestLogger ensures a request_id is present on the context, taking it
// from the inbound header when the caller supplied one, and attaches a
// per-request logger annotated with request_id and path.
func requestLogger(base logging.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if incoming := r.Header.Get(RequestIDHeader); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
			ctx, reqLog := logging.WithRequestLogger(ctx, base.With(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			))
			ctx = logging.ContextWithLogger(ctx, reqLog)
			w.Header().Set(RequestIDHeader, logging.RequestIDFromContext(ctx))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLog.Debug(ctx, "request served",
				logging.Int("status", statusOf(ww)),
				logging.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

// tracing opens a server span per request. The span is renamed after the
// matched route once the router has resolved it.
func tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := observability.StartSpan(r.Context(), "HTTP "+r.Method,
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)
		defer span.End()
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			span.SetAttributes(attribute.String("request_id", reqID))
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := statusOf(ww)
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			span.SetName(fmt.Sprintf("HTTP %s %s", r.Method, rctx.RoutePattern()))
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// spanFrom is a small convenience for handlers that annotate the request span.
func spanFrom(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
