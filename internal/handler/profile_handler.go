package handler

import (
	"net/http"

	"upgradify/internal/domain"
	"upgradify/internal/middleware"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// ProfileHandler reads and updates the signed-in user's profile.
// Routes are mounted behind middleware.RequireSession.
type ProfileHandler struct {
	store  SessionService
	logger *logger.Logger
}

func NewProfileHandler(store SessionService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: log}
}

// ProfileResponse wraps a profile
type ProfileResponse struct {
	Success bool            `json:"success"`
	Profile *domain.Profile `json:"profile"`
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		middleware.WriteError(w, r, h.logger, errors.NewAuthenticationError("Sign in required"))
		return
	}

	profile, err := h.store.GetProfile(r.Context(), identity.ID)
	if err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	if profile == nil {
		middleware.WriteError(w, r, h.logger, errors.NewNotFoundError("Profile not found"))
		return
	}

	middleware.WriteJSON(w, h.logger, http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}

// Update handles PATCH /api/profile. Only the supplied fields change.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		middleware.WriteError(w, r, h.logger, errors.NewAuthenticationError("Sign in required"))
		return
	}

	var fields domain.ProfileFields
	if err := decodeJSON(r, &fields); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.store.UpdateProfile(r.Context(), identity.ID, fields); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	h.logger.WithField("user_id", identity.ID).Debug("Profile updated")
	middleware.WriteJSON(w, h.logger, http.StatusOK, ProfileResponse{
		Success: true,
		Profile: h.store.Snapshot().Profile,
	})
}
