package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (dev/staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "local", "test":
		prefix = "dev"
	case "staging":
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("upgradify:%s:%s", kb.prefix, key)
}

func (kb *KeyBuilder) KeyProfile(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyProfile, userID))
}

func (kb *KeyBuilder) KeyRefreshToken() string {
	return kb.BuildKey(KeyRefreshToken)
}
