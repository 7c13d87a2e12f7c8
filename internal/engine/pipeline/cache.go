// internal/engine/pipeline/cache.go
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"matching-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores completed batch results keyed by an input fingerprint.
// Entries never expire from inside the engine; eviction is the store's
// capacity policy. Weight invalidation is handled by folding the tenant's
// weight version into the fingerprint, so a stale entry simply stops being
// addressable.
type ResultCache interface {
	Get(ctx context.Context, key string) (map[string][]models.RankedMatch, bool, error)
	Set(ctx context.Context, key string, result map[string][]models.RankedMatch) error
}

// Fingerprint derives the cache key for a batch request. Job and candidate
// ids are sorted first so input order never splits the cache.
func Fingerprint(jobIDs []string, candidateIDs []string, tenantID string, weightVersion int64) string {
	jobs := append([]string(nil), jobIDs...)
	sort.Strings(jobs)
	cands := append([]string(nil), candidateIDs...)
	sort.Strings(cands)

	h := sha256.New()
	h.Write([]byte(strings.Join(jobs, ",")))
	fmt.Fprintf(h, "|%d|", len(cands))
	h.Write([]byte(strings.Join(cands, ",")))
	fmt.Fprintf(h, "|%s:%d", tenantID, weightVersion)
	return "batch:" + hex.EncodeToString(h.Sum(nil))
}

// RedisResultCache is the production batch cache.
type RedisResultCache struct {
	client *redis.Client
}

func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (map[string][]models.RankedMatch, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result map[string][]models.RankedMatch
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, result map[string][]models.RankedMatch) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, 0).Err()
}
