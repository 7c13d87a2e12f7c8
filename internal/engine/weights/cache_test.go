// internal/engine/weights/cache_test.go
package weights

import (
	"context"
	"testing"

	"matching-engine/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) *RedisProfileCache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisProfileCache(client, 0)
}

func TestRedisProfileCache_RoundTrip(t *testing.T) {
	cache := setupRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	assert.False(t, ok)

	profile := &models.TenantWeightProfile{
		TenantID:      "tenant-1",
		Weights:       DefaultWeights(),
		FeedbackCount: 7,
	}
	require.NoError(t, cache.Set(ctx, profile))

	got, ok, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile.Weights, got.Weights)
	assert.Equal(t, 7, got.FeedbackCount)
}

func TestRedisProfileCache_InvalidateBumpsVersion(t *testing.T) {
	cache := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.TenantWeightProfile{TenantID: "tenant-1", Weights: DefaultWeights()}))

	version, err := cache.Version(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, cache.Invalidate(ctx, "tenant-1"))

	_, ok, err := cache.Get(ctx, "tenant-1")
	require.NoError(t, err)
	assert.False(t, ok)

	version, err = cache.Version(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, cache.Invalidate(ctx, "tenant-1"))
	version, err = cache.Version(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}
