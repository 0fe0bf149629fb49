package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"upgradify/internal/domain"
	"upgradify/pkg/database"

	"github.com/jackc/pgx/v5"
)

// profileRepository stores profile documents as jsonb rows in PostgreSQL
type profileRepository struct {
	db *database.PostgresDB
}

// NewProfileRepository creates a new Postgres-backed profile repository
func NewProfileRepository(db *database.PostgresDB) ProfileRepository {
	return &profileRepository{
		db: db,
	}
}

// Get retrieves the profile document for id
func (r *profileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT doc
		FROM profiles
		WHERE id = $1
	`

	var raw []byte
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}
	doc["id"] = id

	return domain.ProfileFromDocument(doc)
}

// Put upserts the profile document for id
func (r *profileRepository) Put(ctx context.Context, id string, fields domain.Document, merge bool) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode profile fields: %w", err)
	}

	query := `
		INSERT INTO profiles (id, doc, created_at, updated_at)
		VALUES ($1, $2::jsonb, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			doc = EXCLUDED.doc,
			updated_at = NOW()
	`
	if merge {
		query = `
			INSERT INTO profiles (id, doc, created_at, updated_at)
			VALUES ($1, $2::jsonb, NOW(), NOW())
			ON CONFLICT (id) DO UPDATE SET
				doc = profiles.doc || EXCLUDED.doc,
				updated_at = NOW()
		`
	}

	if _, err := r.db.Pool.Exec(ctx, query, id, payload); err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}

	return nil
}
