// Package cache stores classified inventory listings in Redis. Entries are
// keyed by branch and calendar day because tiers depend on today's date.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/expiry"
	"github.com/tair/insumos/pkg/logger"
)

const (
	keyPrefix     = "insumos:inventory:"
	versionPrefix = "insumos:inventory-version:"
	catalogKey    = versionPrefix + "catalog"
)

// InventoryCache is safe to use with a nil client: reads miss and writes are
// dropped.
//
// Listings are stored under a version made of a catalog counter and a
// per-branch counter. Invalidation bumps a counter, so a listing loaded
// before a write and stored after it lands under a version nobody reads.
type InventoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewInventoryCache(client *redis.Client, ttl time.Duration) *InventoryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &InventoryCache{client: client, ttl: ttl}
}

// Key is the cache key of a branch listing for a version and day.
func Key(branchID, version string, day domain.Date) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, branchID, version, day)
}

func branchPattern(branchID string) string {
	return keyPrefix + branchID + ":*"
}

func branchVersionKey(branchID string) string {
	return versionPrefix + branchID
}

// Version returns the current listing version of a branch. The second result
// is false when the cache is disabled or unreachable; callers then bypass it.
func (c *InventoryCache) Version(ctx context.Context, branchID string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}

	values, err := c.client.MGet(ctx, catalogKey, branchVersionKey(branchID)).Result()
	if err != nil {
		logger.Warn(ctx).Err(err).Str("branch_id", branchID).Msg("Inventory cache version read failed")
		return "", false
	}
	return composeVersion(values[0], values[1]), true
}

func composeVersion(catalog, branch any) string {
	counter := func(v any) string {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		return "0"
	}
	return "c" + counter(catalog) + ".b" + counter(branch)
}

// Get returns the cached listing and whether it was found. Redis failures are
// logged and reported as a miss.
func (c *InventoryCache) Get(ctx context.Context, branchID, version string, day domain.Date) ([]expiry.ClassifiedRow, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	key := Key(branchID, version, day)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Inventory cache read failed")
		}
		return nil, false
	}

	var rows []expiry.ClassifiedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Discarding corrupt inventory cache entry")
		return nil, false
	}

	logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
	return rows, true
}

// Set stores a listing under the version read before it was loaded.
func (c *InventoryCache) Set(ctx context.Context, branchID, version string, day domain.Date, rows []expiry.ClassifiedRow) {
	if c == nil || c.client == nil {
		return
	}

	key := Key(branchID, version, day)
	raw, err := json.Marshal(rows)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Inventory cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Inventory cache write failed")
	}
}

// InvalidateBranch implements domain.CacheInvalidator. It bumps the branch
// version and removes the listings stored so far.
func (c *InventoryCache) InvalidateBranch(ctx context.Context, branchID string) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Incr(ctx, branchVersionKey(branchID)).Err(); err != nil {
		return fmt.Errorf("bump inventory cache version: %w", err)
	}
	return c.deleteMatching(ctx, branchPattern(branchID))
}

// InvalidateCatalog implements domain.CacheInvalidator. Catalog entries are
// shared, so every branch listing goes stale.
func (c *InventoryCache) InvalidateCatalog(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Incr(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("bump inventory catalog version: %w", err)
	}
	return c.deleteMatching(ctx, keyPrefix+"*")
}

func (c *InventoryCache) deleteMatching(ctx context.Context, pattern string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan inventory cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete inventory cache: %w", err)
	}
	return nil
}
