package middleware

import (
	"net/http"
	"time"

	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"golang.org/x/time/rate"
)

// CredentialRateLimit throttles credential submissions to perMinute with a
// small burst. A non-positive limit disables throttling.
func CredentialRateLimit(perMinute int, log *logger.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	burst := perMinute / 4
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "60")
				WriteError(w, r, log, errors.NewRateLimitError("Too many attempts, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
