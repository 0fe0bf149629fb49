package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr := miniredis.RunT(t)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Reachable server",
			url:         "redis://" + mr.Addr(),
			expectError: false,
		},
		{
			name:        "Invalid URL scheme",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client.KeyBuilder)
			assert.NoError(t, client.Close())
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key1", "value1", time.Minute))

	value, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", value)
	assert.Greater(t, mr.TTL("test:key1"), time.Duration(0))

	_, err = client.Get(ctx, "test:missing")
	assert.ErrorIs(t, err, Nil)
}

func TestClient_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:key1", "value1"))
	require.NoError(t, mr.Set("test:key2", "value2"))

	require.NoError(t, client.Delete(ctx, "test:key1", "test:key2"))
	assert.False(t, mr.Exists("test:key1"))
	assert.False(t, mr.Exists("test:key2"))

	// deleting a missing key is not an error
	assert.NoError(t, client.Delete(ctx, "test:missing"))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short:key", prefixForLog("short:key"))
	assert.Equal(t, "upgradify:dev:profile:ab…", prefixForLog("upgradify:dev:profile:abcdef-123"))
}
