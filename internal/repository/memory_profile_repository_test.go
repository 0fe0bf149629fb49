package repository

import (
	"context"
	"testing"

	"upgradify/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProfileRepository_GetMissing(t *testing.T) {
	repo := NewMemoryProfileRepository()

	profile, err := repo.Get(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, profile)
}

func TestMemoryProfileRepository_PutMergeAndReplace(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()

	require.NoError(t, repo.Put(ctx, "u1", domain.Document{"name": "Ann", "points": 0, "badges": []string{}}, false))
	require.NoError(t, repo.Put(ctx, "u1", domain.Document{"points": 5}, true))

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "Ann", profile.Name)
	assert.Equal(t, 5, profile.Points)

	require.NoError(t, repo.Put(ctx, "u1", domain.Document{"points": 1}, false))
	profile, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, profile.Name)
	assert.Equal(t, 1, profile.Points)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryProfileRepository_MergeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()
	require.NoError(t, repo.Put(ctx, "u1", domain.Document{"name": "Ann"}, false))

	patch := domain.ProfileFields{Points: domain.IntPtr(5)}.Document()
	require.NoError(t, repo.Put(ctx, "u1", patch, true))
	once, err := repo.Get(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, repo.Put(ctx, "u1", patch, true))
	twice, err := repo.Get(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestMemoryProfileRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryProfileRepository()
	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Put(ctx, "u1", domain.Document{}, true), context.Canceled)
}
