package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"upgradify/internal/domain"
	"upgradify/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingRepository counts backing reads
type countingRepository struct {
	*MemoryProfileRepository
	gets   atomic.Int32
	getErr error

	// started and release hold a read open until the test lets it go
	started chan struct{}
	release chan struct{}
}

func (r *countingRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	r.gets.Add(1)
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.release != nil {
		close(r.started)
		<-r.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.MemoryProfileRepository.Get(ctx, id)
}

func setupCachedRepository(t *testing.T) (*miniredis.Miniredis, *countingRepository, *CachedProfileRepository) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingRepository{MemoryProfileRepository: NewMemoryProfileRepository()}
	return mr, backing, NewCachedProfileRepository(backing, client, time.Minute, zap.NewNop())
}

func TestCachedProfileRepository_MissThenHit(t *testing.T) {
	ctx := context.Background()
	mr, backing, repo := setupCachedRepository(t)
	require.NoError(t, backing.Put(ctx, "u1", domain.Document{"name": "Ann", "points": 3}, false))

	first, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Ann", first.Name)

	repo.Wait()
	assert.True(t, mr.Exists("upgradify:dev:profile:u1"))

	second, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), backing.gets.Load())
}

func TestCachedProfileRepository_MissingProfileIsNotCached(t *testing.T) {
	mr, _, repo := setupCachedRepository(t)

	profile, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, profile)

	repo.Wait()
	assert.False(t, mr.Exists("upgradify:dev:profile:nobody"))
}

func TestCachedProfileRepository_PutInvalidates(t *testing.T) {
	ctx := context.Background()
	mr, backing, repo := setupCachedRepository(t)
	require.NoError(t, backing.Put(ctx, "u1", domain.Document{"name": "Ann", "points": 1}, false))

	_, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	repo.Wait()
	require.True(t, mr.Exists("upgradify:dev:profile:u1"))

	require.NoError(t, repo.Put(ctx, "u1", domain.Document{"points": 9}, true))
	assert.False(t, mr.Exists("upgradify:dev:profile:u1"))

	updated, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Points)
	assert.Equal(t, "Ann", updated.Name)
}

func TestCachedProfileRepository_CorruptedCacheFallsBack(t *testing.T) {
	ctx := context.Background()
	mr, backing, repo := setupCachedRepository(t)
	require.NoError(t, backing.Put(ctx, "u1", domain.Document{"name": "Ann"}, false))
	require.NoError(t, mr.Set("upgradify:dev:profile:u1", "{not json"))

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Name)
	repo.Wait()

	raw, err := mr.Get("upgradify:dev:profile:u1")
	require.NoError(t, err)
	var cached domain.Profile
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached))
}

func TestCachedProfileRepository_BackingErrorIsWrapped(t *testing.T) {
	_, backing, repo := setupCachedRepository(t)
	backing.getErr = errors.New("connection reset")

	_, err := repo.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile store fallback failed")
	assert.ErrorIs(t, err, backing.getErr)
}

func TestCachedProfileRepository_RedisDownStillServesReads(t *testing.T) {
	ctx := context.Background()
	mr, backing, repo := setupCachedRepository(t)
	require.NoError(t, backing.Put(ctx, "u1", domain.Document{"name": "Ann"}, false))
	mr.Close()

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Name)
	repo.Wait()
}

func TestCachedProfileRepository_CancelledCallerDoesNotFailSharedRead(t *testing.T) {
	mr, backing, repo := setupCachedRepository(t)
	require.NoError(t, backing.Put(context.Background(), "u1", domain.Document{"name": "Ann"}, false))
	backing.started = make(chan struct{})
	backing.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := repo.Get(ctx, "u1")
		errCh <- err
	}()

	<-backing.started
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)

	close(backing.release)
	require.Eventually(t, func() bool {
		return mr.Exists("upgradify:dev:profile:u1")
	}, time.Second, 10*time.Millisecond, "the shared read should complete and fill the cache")
	repo.Wait()

	profile, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Name)
	assert.Equal(t, int32(1), backing.gets.Load())
}
