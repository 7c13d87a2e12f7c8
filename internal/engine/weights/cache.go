// internal/engine/weights/cache.go
package weights

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"matching-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// ProfileCache stores computed tenant weight profiles. Implementations must
// swap entries atomically: a reader may see a stale profile during a
// recompute but never a partially written one. Invalidate bumps the tenant's
// version so downstream caches keyed on it miss.
type ProfileCache interface {
	Get(ctx context.Context, tenantID string) (*models.TenantWeightProfile, bool, error)
	Set(ctx context.Context, profile *models.TenantWeightProfile) error
	Invalidate(ctx context.Context, tenantID string) error
	Version(ctx context.Context, tenantID string) (int64, error)
}

const (
	profileKeyPrefix = "weights:profile:"
	versionKeyPrefix = "weights:version:"
)

// RedisProfileCache is the production cache. Profiles are stored as one JSON
// value per tenant, so writes are atomic at the key level.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func (c *RedisProfileCache) Get(ctx context.Context, tenantID string) (*models.TenantWeightProfile, bool, error) {
	val, err := c.client.Get(ctx, profileKeyPrefix+tenantID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var profile models.TenantWeightProfile
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, profile *models.TenantWeightProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKeyPrefix+profile.TenantID, data, c.ttl).Err()
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, profileKeyPrefix+tenantID).Err(); err != nil {
		return err
	}
	return c.client.Incr(ctx, versionKeyPrefix+tenantID).Err()
}

func (c *RedisProfileCache) Version(ctx context.Context, tenantID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKeyPrefix+tenantID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// MemoryProfileCache is an in-process cache for tests and single-instance
// deployments. Entries are swapped whole under the lock.
type MemoryProfileCache struct {
	mu       sync.RWMutex
	profiles map[string]*models.TenantWeightProfile
	versions map[string]int64
}

func NewMemoryProfileCache() *MemoryProfileCache {
	return &MemoryProfileCache{
		profiles: make(map[string]*models.TenantWeightProfile),
		versions: make(map[string]int64),
	}
}

func (c *MemoryProfileCache) Get(_ context.Context, tenantID string) (*models.TenantWeightProfile, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	profile, ok := c.profiles[tenantID]
	if !ok {
		return nil, false, nil
	}
	cp := *profile
	return &cp, true, nil
}

func (c *MemoryProfileCache) Set(_ context.Context, profile *models.TenantWeightProfile) error {
	cp := *profile
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[profile.TenantID] = &cp
	return nil
}

func (c *MemoryProfileCache) Invalidate(_ context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, tenantID)
	c.versions[tenantID]++
	return nil
}

func (c *MemoryProfileCache) Version(_ context.Context, tenantID string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[tenantID], nil
}
