package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCacheRoundTripAndTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewCacheService(client)
	ctx := context.Background()

	type payload struct{ Name string }
	require.NoError(t, cache.Set(ctx, CacheKey("eq", "high"), payload{Name: "x"}, time.Minute))
	assert.True(t, mr.Exists("cache:eq:high"))
	assert.Equal(t, time.Minute, mr.TTL("cache:eq:high"))

	var got payload
	hit, err := cache.Get(ctx, "eq:high", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "x", got.Name)

	require.NoError(t, cache.Set(ctx, "long", 1, 48*time.Hour))
	assert.Equal(t, MaxCacheTTL, mr.TTL("cache:long"))

	require.NoError(t, cache.Delete(ctx, "eq:high"))
	hit, err = cache.Get(ctx, "eq:high", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheNilClientIsMiss(t *testing.T) {
	cache := NewCacheService(nil)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, "k", 1, time.Minute))
	var v int
	hit, err := cache.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Delete(ctx, "k"))
}
