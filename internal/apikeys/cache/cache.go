// Package cache provides the Redis-backed candidate cache used by key
// resolution. Entries are keyed by the non-secret key prefix and hold the
// full candidate list for that prefix, so a cache hit still goes through
// hash verification in the service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hawiya/internal/apikeys/models"
)

const keyPrefix = "apikeys:prefix:"

// RedisCache caches prefix candidate lists with a bounded TTL. An empty list
// is cached too (negative entry) so repeated probes with unknown prefixes do
// not hammer the relational store.
type RedisCache struct {
	client      *redis.Client
	ttl         time.Duration
	negativeTTL time.Duration
}

func NewRedis(client *redis.Client, ttl, negativeTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}
}

// GetCandidates returns the cached candidate list for a prefix. The second
// return reports whether the prefix was present at all; a present-but-empty
// list is a valid negative entry.
func (c *RedisCache) GetCandidates(ctx context.Context, prefix string) ([]models.Account, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+prefix).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get candidate cache: %w", err)
	}

	var candidates []models.Account
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false, fmt.Errorf("decode candidate cache: %w", err)
	}
	return candidates, true, nil
}

// SetCandidates stores a candidate list. Empty lists use the shorter negative
// TTL so newly created keys become resolvable quickly.
func (c *RedisCache) SetCandidates(ctx context.Context, prefix string, candidates []models.Account) error {
	if candidates == nil {
		candidates = []models.Account{}
	}
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode candidate cache: %w", err)
	}

	ttl := c.ttl
	if len(candidates) == 0 {
		ttl = c.negativeTTL
	}
	if err := c.client.Set(ctx, keyPrefix+prefix, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set candidate cache: %w", err)
	}
	return nil
}

// Invalidate drops the entry for a prefix. Used on revocation so stale
// cached accounts disappear immediately rather than waiting out the TTL.
func (c *RedisCache) Invalidate(ctx context.Context, prefix string) error {
	if err := c.client.Del(ctx, keyPrefix+prefix).Err(); err != nil {
		return fmt.Errorf("invalidate candidate cache: %w", err)
	}
	return nil
}
