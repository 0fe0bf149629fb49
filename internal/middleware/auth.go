package middleware

import (
	"context"
	"net/http"
	"time"

	"upgradify/internal/domain"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// IdentityContextKey is the context key for the signed-in identity
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the context key for request ID
	RequestIDContextKey ContextKey = "request_id"
)

// SessionReader is the read side of the Session Store
type SessionReader interface {
	Snapshot() domain.Session
	WaitReady(ctx context.Context) error
}

// RequireSession rejects requests while no identity is signed in and stores
// the identity in the request context otherwise
func RequireSession(store SessionReader, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := store.Snapshot()
			if session.Identity == nil {
				WriteError(w, r, log, errors.NewAuthenticationError("Sign in required"))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, session.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WaitReady holds requests until the Session Store has resolved the initial
// identity, giving up after timeout
func WaitReady(store SessionReader, timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			if err := store.WaitReady(ctx); err != nil {
				WriteError(w, r, log, errors.NewTimeoutError(errors.ErrorTypeStore, "Session is still loading", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by RequestID
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// IdentityFromContext returns the identity stored by RequireSession
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.Identity)
	return identity
}
