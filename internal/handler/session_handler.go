package handler

import (
	"net/http"

	"upgradify/internal/domain"
	"upgradify/internal/middleware"
	"upgradify/internal/navigation"
	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// SessionHandler exposes the current session, login and logout
type SessionHandler struct {
	store  SessionService
	logger *logger.Logger
}

func NewSessionHandler(store SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: log}
}

// SessionResponse carries a Session snapshot
type SessionResponse struct {
	Success  bool           `json:"success"`
	SignedIn bool           `json:"signed_in"`
	Session  domain.Session `json:"session"`
}

// LoginRequest is the login form
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, http.StatusOK)
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "Email is required"
	}
	if req.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		middleware.WriteError(w, r, h.logger, errors.NewFieldValidationError("Please correct the highlighted fields", fields))
		return
	}

	if _, err := h.store.Login(r.Context(), req.Email, req.Password); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}
	h.writeSession(w, http.StatusOK)
}

// Logout handles POST /api/session/logout and sends the client to the landing page
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		middleware.WriteError(w, r, h.logger, err)
		return
	}

	router := navigation.NewRecorder()
	router.Navigate(navigation.PathLanding)
	middleware.WriteJSON(w, h.logger, http.StatusOK, RedirectResponse{Success: true, Redirect: router.Last()})
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, status int) {
	session := h.store.Snapshot()
	middleware.WriteJSON(w, h.logger, status, SessionResponse{
		Success:  true,
		SignedIn: session.SignedIn(),
		Session:  session,
	})
}
