package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"upgradify/pkg/redis"
)

// TokenStore persists the provider refresh token between restarts
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// RedisTokenStore keeps the refresh token in Redis
type RedisTokenStore struct {
	redis *redis.Client
}

// NewRedisTokenStore creates a token store backed by Redis
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{redis: client}
}

// Load returns the stored refresh token, or "" when none is stored
func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyRefreshToken())
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.redis.KeyBuilder.KeyRefreshToken(), token, redis.TTLRefreshToken); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.redis.Delete(ctx, s.redis.KeyBuilder.KeyRefreshToken()); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the refresh token for the lifetime of the process
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
