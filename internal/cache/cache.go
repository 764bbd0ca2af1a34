// Package cache implements an optional Redis-backed cache of lookup results.
// Entries are serialised snapshots keyed by the normalised token, so cached
// results obey the same isolation guarantee as Store.Query: every mutating
// operation invalidates the whole cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lookup-labs/doclookup/pkg/config"
	pkgredis "github.com/lookup-labs/doclookup/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "lookup:"

type LookupCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *LookupCache {
	return &LookupCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "lookup-cache"),
	}
}

// Get returns the cached document set for the given normalised token.
func (c *LookupCache) Get(ctx context.Context, token string) ([]string, bool) {
	key := c.buildKey(token)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return names, true
}

// Set stores a document set under the given normalised token.
func (c *LookupCache) Set(ctx context.Context, token string, names []string) {
	key := c.buildKey(token)
	data, err := json.Marshal(names)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for token, or computes and caches
// it. Concurrent misses for the same token are collapsed into one compute.
func (c *LookupCache) GetOrCompute(
	ctx context.Context,
	token string,
	computeFn func() []string,
) ([]string, bool) {
	if names, ok := c.Get(ctx, token); ok {
		return names, true
	}
	key := c.buildKey(token)
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if names, ok := c.Get(ctx, token); ok {
			return names, nil
		}
		names := computeFn()
		c.Set(ctx, token, names)
		return names, nil
	})
	return val.([]string), false
}

// Invalidate removes every cached lookup result. It is called after any
// register, remove, or clear so stale posting sets are never served.
func (c *LookupCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the cumulative hit and miss counters.
func (c *LookupCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LookupCache) buildKey(token string) string {
	// Tokens are arbitrary user text; hashing keeps keys short and safe.
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
