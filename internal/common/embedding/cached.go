// internal/common/embedding/cached.go
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider decorates a Provider with a redis cache. Providers are
// deterministic for identical input, so caching by content hash is safe and
// caps provider load across repeat scorings.
type CachedProvider struct {
	inner Provider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, redis: rdb, ttl: ttl}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector when present, otherwise delegates and
// stores the result. Cache failures are ignored: the provider answer wins.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(text)

	if val, err := p.redis.Get(ctx, key).Result(); err == nil {
		var vec []float64
		if err := json.Unmarshal([]byte(val), &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	}

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		p.redis.Set(ctx, key, data, p.ttl)
	}

	return vec, nil
}
