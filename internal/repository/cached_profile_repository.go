package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"upgradify/internal/domain"
	"upgradify/pkg/redis"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedProfileRepository puts a Redis cache-aside layer in front of another
// ProfileRepository. Writes go to the backing store first and then drop the
// cached copy.
type CachedProfileRepository struct {
	next   ProfileRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group
	fills sync.WaitGroup

	// epochs counts writes per id so a fill that raced a Put is dropped
	mu     sync.Mutex
	epochs map[string]uint64
}

// sharedReadTimeout bounds a backing read shared by concurrent misses
const sharedReadTimeout = 5 * time.Second

var _ ProfileRepository = (*CachedProfileRepository)(nil)

// NewCachedProfileRepository wraps next with a Redis cache
func NewCachedProfileRepository(next ProfileRepository, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProfileRepository {
	if ttl <= 0 {
		ttl = redis.TTLProfile
	}
	return &CachedProfileRepository{
		next:   next,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		epochs: make(map[string]uint64),
	}
}

// Get reads through the cache
func (c *CachedProfileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	cacheKey := c.redis.KeyBuilder.KeyProfile(id)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var profile domain.Profile
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &profile); unmarshalErr == nil {
			c.logger.Debug("Profile cache hit", zap.String("user_id", id))
			return &profile, nil
		} else {
			c.logger.Warn("Profile cache corrupted, falling back to store",
				zap.String("user_id", id),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Profile cache error, falling back to store",
			zap.String("user_id", id),
			zap.Error(err))
	}

	c.logger.Debug("Profile cache miss", zap.String("user_id", id))

	// Concurrent misses for the same id share one backing read. The read is
	// detached from any single caller so one cancelled request cannot fail
	// the others waiting on it.
	ch := c.group.DoChan(id, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		epoch := c.epoch(id)
		profile, err := c.next.Get(readCtx, id)
		if err == nil && profile != nil {
			c.fills.Add(1)
			go c.cacheProfileAsync(id, profile.Clone(), epoch)
		}
		return profile, err
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("profile store fallback abandoned: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("profile store fallback failed: %w", res.Err)
		}
		profile, _ := res.Val.(*domain.Profile)
		if profile == nil {
			return nil, nil
		}
		return profile.Clone(), nil
	}
}

// Put writes to the backing store and invalidates the cached copy
func (c *CachedProfileRepository) Put(ctx context.Context, id string, fields domain.Document, merge bool) error {
	if err := c.next.Put(ctx, id, fields, merge); err != nil {
		return err
	}

	c.mu.Lock()
	c.epochs[id]++
	c.mu.Unlock()
	c.group.Forget(id)

	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyProfile(id)); err != nil {
		c.logger.Error("Failed to invalidate profile cache",
			zap.String("user_id", id),
			zap.Error(err))
	}
	return nil
}

// Wait blocks until in-flight cache fills have finished
func (c *CachedProfileRepository) Wait() {
	c.fills.Wait()
}

func (c *CachedProfileRepository) epoch(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[id]
}

// cacheProfileAsync caches profile data in the background unless the
// profile was written after it was read
func (c *CachedProfileRepository) cacheProfileAsync(id string, profile *domain.Profile, readEpoch uint64) {
	defer c.fills.Done()

	ctx, cancel := context.WithTimeout(context.Background(), sharedReadTimeout)
	defer cancel()

	data, err := json.Marshal(profile)
	if err != nil {
		c.logger.Error("Failed to marshal profile for caching",
			zap.String("user_id", id),
			zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[id] != readEpoch {
		c.logger.Debug("Skipping stale profile cache fill", zap.String("user_id", id))
		return
	}

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyProfile(id), string(data), c.ttl); err != nil {
		c.logger.Error("Failed to cache profile",
			zap.String("user_id", id),
			zap.Error(err))
	} else {
		c.logger.Debug("Profile cached successfully", zap.String("user_id", id))
	}
}
