package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoledesexcellents/ecole-ui/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestCache_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "stats:overview:all", []byte(`{"cours":3}`), time.Minute))

		got, err := cache.Get(ctx, "stats:overview:all")
		require.NoError(t, err)
		assert.JSONEq(t, `{"cours":3}`, string(got))

		ttl := client.TTL(ctx, DefaultKeyPrefix+"stats:overview:all").Val()
		assert.True(t, ttl > 0 && ttl <= time.Minute)
	})

	t.Run("missing key", func(t *testing.T) {
		got, err := cache.Get(ctx, "stats:missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "stats:gone", []byte("x"), 0))

		existed, err := cache.Delete(ctx, "stats:gone")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = cache.Delete(ctx, "stats:gone")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "stats:short", []byte("x"), 50*time.Millisecond))
		time.Sleep(150 * time.Millisecond)

		got, err := cache.Get(ctx, "stats:short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, cache.Health(ctx))
	})
}

func TestCache_Prefix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	a := NewCacheWithPrefix(client, "a:")
	b := NewCacheWithPrefix(client, "b:")

	require.NoError(t, a.Set(ctx, "k", []byte("from a"), time.Minute))

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from a"), got)
}

func TestCache_RejectsEmptyKey(t *testing.T) {
	cache := NewCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	ctx := context.Background()

	_, err := cache.Get(ctx, "")
	require.Error(t, err)
	require.Error(t, cache.Set(ctx, "", nil, 0))
	_, err = cache.Delete(ctx, "")
	require.Error(t, err)
}
