package handler

import (
	"net/http"

	"upgradify/internal/dashboard"
	"upgradify/internal/domain"
	"upgradify/internal/middleware"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// LandingHandler serves the public landing page content
type LandingHandler struct {
	content dashboard.ContentProvider
	logger  *logger.Logger
}

func NewLandingHandler(content dashboard.ContentProvider, log *logger.Logger) *LandingHandler {
	return &LandingHandler{content: content, logger: log}
}

// LandingResponse wraps the landing content
type LandingResponse struct {
	Success bool           `json:"success"`
	Landing domain.Landing `json:"landing"`
}

// Get handles GET /api/landing
func (h *LandingHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.content.Content(r.Context())
	if err != nil {
		middleware.WriteError(w, r, h.logger, errors.NewInternalError("Failed to load landing content", err))
		return
	}

	middleware.WriteJSON(w, h.logger, http.StatusOK, LandingResponse{
		Success: true,
		Landing: content.Landing,
	})
}
