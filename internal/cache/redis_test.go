package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embed-service/internal/embeddings"
)

// setupMiniRedis creates a test Redis server using miniredis
func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func TestNewRedisCache(t *testing.T) {
	mr := setupMiniRedis(t)

	t.Run("successful connection", func(t *testing.T) {
		c, err := NewRedisCache(mr.Addr(), "")
		require.NoError(t, err)
		assert.NoError(t, c.Close())
	})

	t.Run("wrong password", func(t *testing.T) {
		authed := setupMiniRedis(t)
		authed.RequireAuth("secret")

		_, err := NewRedisCache(authed.Addr(), "")
		assert.Error(t, err)

		c, err := NewRedisCache(authed.Addr(), "secret")
		require.NoError(t, err)
		assert.NoError(t, c.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := NewRedisCache("127.0.0.1:1", "")
		assert.Error(t, err)
	})
}

func TestRedisCacheVectors(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	c, err := NewRedisCache(mr.Addr(), "")
	require.NoError(t, err)
	defer c.Close()

	got, err := c.GetVector(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	vec := embeddings.Vector{0.5, -0.25, 0.125}
	require.NoError(t, c.SetVector(ctx, "k", vec, time.Minute))
	assert.True(t, mr.Exists(cacheKeyPrefix+"k"))
	assert.Equal(t, time.Minute, mr.TTL(cacheKeyPrefix+"k"))

	got, err = c.GetVector(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	mr.FastForward(2 * time.Minute)
	got, err = c.GetVector(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	mr := setupMiniRedis(t)
	c, err := NewRedisCache(mr.Addr(), "")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, mr.Set(cacheKeyPrefix+"bad", "not-json"))
	_, err = c.GetVector(context.Background(), "bad")
	assert.Error(t, err)
}
