package rest

import (
	"net/http"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	core_port "github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/go-chi/chi/v5/middleware"
)

// LoggerMiddleware кладет логгер в контекст запроса и пишет access-лог.
func LoggerMiddleware(baseLogger core_port.LoggerPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestLogger := baseLogger.WithFields(core_port.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			ctx := contextkeys.ContextWithLogger(r.Context(), requestLogger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			requestLogger.Debug("Handled request", core_port.Fields{
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			})
		})
	}
}
