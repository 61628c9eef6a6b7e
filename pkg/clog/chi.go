package clog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type chiConfig struct {
	Filter func(r *http.Request) bool
}

type ChiOption func(*chiConfig)

// WithChiFilter suppresses the access log for requests the filter rejects.
func WithChiFilter(filter func(r *http.Request) bool) ChiOption {
	return func(cfg *chiConfig) {
		cfg.Filter = filter
	}
}

// SlogChiMiddleware attaches a log attribute bag to the request context and
// writes one access log line per request at a level derived from its status.
func SlogChiMiddleware(opts ...ChiOption) func(http.Handler) http.Handler {
	cfg := chiConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := ContextWithSlog(r.Context())
			AddAttributes(ctx, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"proto":  r.Proto,
			})
			next.ServeHTTP(ww, r.WithContext(ctx))
			if cfg.Filter != nil && !cfg.Filter(r) {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			AddAttributes(ctx, map[string]any{
				"status":        status,
				"bytes_written": ww.BytesWritten(),
				"duration":      time.Since(startTime),
			})
			slog.Log(ctx, HTTPStatusToLevel(status).Slog(), http.StatusText(status))
		})
	}
}
