package repository

import (
	"context"

	"upgradify/internal/domain"
)

// ProfileRepository is the profile document store. One document per user id.
type ProfileRepository interface {
	// Get returns the profile for id, or (nil, nil) when none exists
	Get(ctx context.Context, id string) (*domain.Profile, error)

	// Put writes fields for id. With merge the fields are overlaid on the
	// stored document (last write wins per field); without merge the
	// document is replaced.
	Put(ctx context.Context, id string, fields domain.Document, merge bool) error
}
