package middleware

import (
	"net/http"
	"time"

	"upgradify/pkg/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request at debug level, or warn for 5xx
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Component("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry := log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration":    time.Since(start).String(),
				"request_id":  GetRequestID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("Request served")
			} else {
				entry.Debug("Request served")
			}
		})
	}
}
