package service

import (
	"context"

	"upgradify/internal/domain"
)

// IdentityProvider authenticates users and reports identity changes
type IdentityProvider interface {
	// Authenticate signs in with email and password
	Authenticate(ctx context.Context, email, password string) (*domain.Identity, error)

	// Register creates a new email/password account and signs it in
	Register(ctx context.Context, email, password, displayName string) (*domain.Identity, error)

	// FederatedSignIn runs a third-party sign-in flow (Google)
	FederatedSignIn(ctx context.Context) (*domain.Identity, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error

	// Subscribe registers fn for identity changes, nil meaning signed out.
	// Notifications arrive in the order they were emitted; a subscriber
	// joining after the initial state was resolved receives it once.
	Subscribe(fn func(*domain.Identity)) (unsubscribe func())

	// Restore resolves the initial identity, resuming a persisted session if any
	Restore(ctx context.Context) error
}
