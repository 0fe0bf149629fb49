package handler

import (
	"context"
	"net/http"
	"time"

	"upgradify/internal/dashboard"
	"upgradify/internal/middleware"
	"upgradify/internal/onboarding"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Store is the Session Store as seen by the HTTP layer
type Store interface {
	SessionService
	WaitReady(ctx context.Context) error
}

// RouterConfig collects everything the HTTP API is built from. Optional
// fields may be left zero.
type RouterConfig struct {
	Store    Store
	Content  dashboard.ContentProvider
	Observer onboarding.Observer
	Logger   *logger.Logger

	CORS                    *middleware.CORSConfig
	ReadyTimeout            time.Duration
	CredentialRatePerMinute int
	HealthChecks            []HealthCheck

	// Optional
	HTTPMetrics    middleware.HTTPRecorder
	MetricsHandler http.Handler
	GoogleCallback http.HandlerFunc
}

// NewRouter configures and returns the HTTP router
func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Logger
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 5 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	r.Use(middleware.CORS(cfg.CORS, log))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := NewHealthHandler(log, cfg.HealthChecks...)
	landingHandler := NewLandingHandler(cfg.Content, log)
	sessionHandler := NewSessionHandler(cfg.Store, log)
	profileHandler := NewProfileHandler(cfg.Store, log)
	onboardingHandler := NewOnboardingHandler(cfg.Store, cfg.Observer, log)
	dashboardHandler := NewDashboardHandler(cfg.Store, cfg.Content, log)

	waitReady := middleware.WaitReady(cfg.Store, cfg.ReadyTimeout, log)
	requireSession := middleware.RequireSession(cfg.Store, log)
	rateLimit := middleware.CredentialRateLimit(cfg.CredentialRatePerMinute, log)

	r.Get("/health", healthHandler.Check)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	if cfg.GoogleCallback != nil {
		r.Get("/auth/google/callback", cfg.GoogleCallback)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/landing", landingHandler.Get)

		r.Route("/session", func(r chi.Router) {
			r.With(waitReady).Get("/", sessionHandler.Get)
			r.With(rateLimit).Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(waitReady, requireSession)
			r.Get("/", profileHandler.Get)
			r.Patch("/", profileHandler.Update)
		})

		r.Route("/onboarding", func(r chi.Router) {
			r.Post("/", onboardingHandler.Start)
			r.Get("/", onboardingHandler.Get)
			r.With(rateLimit).Post("/credentials", onboardingHandler.SubmitCredentials)
			r.With(rateLimit).Post("/federated", onboardingHandler.SubmitFederated)
			r.Post("/interests/{tag}", onboardingHandler.ToggleInterest)
			r.Post("/survey", onboardingHandler.SubmitSurvey)
			r.Post("/finish", onboardingHandler.Finish)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(waitReady, requireSession)
			r.Get("/", dashboardHandler.Get)
			r.Post("/recommendations", dashboardHandler.RequestRecommendation)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, log, errors.NewNotFoundError("Endpoint not found"))
	})

	log.Info("Router configured successfully")
	return r
}
