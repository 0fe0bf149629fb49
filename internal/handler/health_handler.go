package handler

import (
	"context"
	"net/http"
	"time"

	"upgradify/internal/middleware"
	"upgradify/pkg/logger"
)

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checks []HealthCheck
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(log *logger.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: log,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "upgradify",
		Checks:    make(map[string]string, len(h.checks)),
	}

	status := http.StatusOK
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", check.Name).Warn("Health check failed")
			response.Checks[check.Name] = "unhealthy"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[check.Name] = "healthy"
	}

	middleware.WriteJSON(w, h.logger, status, response)
}
