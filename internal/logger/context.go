// internal/logger/context.go
//
// Request-scoped loggers.
//
// Context
// -------
// Middleware tags every request with an ID (the caller's X-Request-Id when
// present, else a fresh UUID), echoes it in the response header, and stores
// a child logger carrying that ID in the request context.  Handlers call
// FromContext and never build their own fields for request identity.
//
// Notes
// -----
// • FromContext falls back to the global logger, so code paths outside an
//   HTTP request (auto-save timers, the evictor) can call it too.
// • Oxford commas, two spaces after periods.

package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is read from and written to every request.
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// WithContext returns a context carrying l.
func WithContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or zap.S().
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return zap.S()
}

// statusWriter records the status code for the access line.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware attaches a request logger and writes one access line per
// request at DEBUG, or at WARN for 5xx responses.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		l := zap.S().With("request_id", id)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r.WithContext(WithContext(r.Context(), l)))

		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"dur_ms", time.Since(start).Milliseconds(),
		}
		if sw.status >= 500 {
			l.Warnw("request failed", kv...)
			return
		}
		l.Debugw("request", kv...)
	})
}
