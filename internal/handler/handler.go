package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"upgradify/internal/domain"
	"upgradify/internal/onboarding"
	"upgradify/pkg/errors"
)

// SessionService is what the handlers need from the Session Store
type SessionService interface {
	onboarding.SessionStore
	Snapshot() domain.Session
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
}

// RedirectResponse tells the client which view to show next
type RedirectResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return errors.NewValidationError("Invalid request body", map[string]interface{}{"body": err.Error()})
	}
	return nil
}
