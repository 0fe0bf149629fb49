package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// HTTPRecorder receives one observation per served request
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// Metrics records method, matched route pattern, status and latency.
// Unmatched requests are reported under the "unmatched" route.
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
