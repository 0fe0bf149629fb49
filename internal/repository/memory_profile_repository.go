package repository

import (
	"context"
	"sync"

	"upgradify/internal/domain"
)

// MemoryProfileRepository keeps profile documents in process memory
type MemoryProfileRepository struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

var _ ProfileRepository = (*MemoryProfileRepository)(nil)

// NewMemoryProfileRepository creates an empty in-memory profile store
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{docs: make(map[string]domain.Document)}
}

// Get returns the profile for id, or nil if none exists
func (r *MemoryProfileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return domain.ProfileFromDocument(doc)
}

// Put stores fields for id
func (r *MemoryProfileRepository) Put(ctx context.Context, id string, fields domain.Document, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := domain.Document{}
	if existing, ok := r.docs[id]; ok && merge {
		for k, v := range existing {
			doc[k] = v
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc["id"] = id
	r.docs[id] = doc
	return nil
}

// Len returns the number of stored profiles
func (r *MemoryProfileRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
