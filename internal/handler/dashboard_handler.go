package handler

import (
	"net/http"

	"upgradify/internal/dashboard"
	"upgradify/internal/middleware"
	"upgradify/internal/navigation"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// DashboardHandler renders the signed-in dashboard.
// Routes are mounted behind middleware.RequireSession.
type DashboardHandler struct {
	store   SessionService
	content dashboard.ContentProvider
	logger  *logger.Logger
}

func NewDashboardHandler(store SessionService, content dashboard.ContentProvider, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, content: content, logger: log}
}

// DashboardResponse wraps the dashboard view
type DashboardResponse struct {
	Success   bool           `json:"success"`
	Dashboard dashboard.View `json:"dashboard"`
}

// Get handles GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.content.Content(r.Context())
	if err != nil {
		middleware.WriteError(w, r, h.logger, errors.NewInternalError("Failed to load dashboard content", err))
		return
	}

	middleware.WriteJSON(w, h.logger, http.StatusOK, DashboardResponse{
		Success:   true,
		Dashboard: dashboard.BuildView(h.store.Snapshot(), content),
	})
}

// RequestRecommendation handles POST /api/dashboard/recommendations
func (h *DashboardHandler) RequestRecommendation(w http.ResponseWriter, r *http.Request) {
	router := navigation.NewRecorder()
	if err := dashboard.RequestRecommendation(h.store.Snapshot().Profile, router); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, h.logger, http.StatusOK, RedirectResponse{Success: true, Redirect: router.Last()})
}
