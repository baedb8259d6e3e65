package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "blocked_slots:"

// Cache is an optional Redis-backed cache of blocked-slot sets per date.
// Entries carry a short TTL and are invalidated on administrative rule
// changes; the resolver stays the source of truth on a miss.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps a Redis client with the given entry TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: rdb, ttl: ttl}
}

// Get returns the cached blocked set for a date, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, date string) ([]string, bool) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return nil, false
	}
	val, err := c.redis.Get(ctx, cacheKeyPrefix+date).Result()
	if err != nil {
		return nil, false
	}
	var blocked []string
	if err := json.Unmarshal([]byte(val), &blocked); err != nil {
		return nil, false
	}
	return blocked, true
}

// Set stores the blocked set for a date. Failures are ignored; the cache is
// best-effort.
func (c *Cache) Set(ctx context.Context, date string, blocked []string) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(blocked)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKeyPrefix+date, data, c.ttl).Err()
}

// InvalidateDate drops the entry for one date (date-specific rule changed).
func (c *Cache) InvalidateDate(ctx context.Context, date string) {
	if c == nil || c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, cacheKeyPrefix+date).Err()
}

// InvalidateAll drops every cached date. Recurring rules affect an
// unbounded set of dates, so the whole prefix is scanned and removed.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("invalidate %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// CachedResolver composes a resolver with the cache.
type CachedResolver struct {
	resolver *Resolver
	cache    *Cache
}

// NewCachedResolver wraps a resolver; cache may be nil to disable caching.
func NewCachedResolver(resolver *Resolver, cache *Cache) *CachedResolver {
	return &CachedResolver{resolver: resolver, cache: cache}
}

// BlockedSlots returns the blocked set for a date, consulting the cache
// before the rule store.
func (cr *CachedResolver) BlockedSlots(ctx context.Context, date string) ([]string, error) {
	if blocked, ok := cr.cache.Get(ctx, date); ok {
		return blocked, nil
	}

	blocked, err := cr.resolver.BlockedSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	cr.cache.Set(ctx, date, blocked)
	return blocked, nil
}

// Invalidate drops cache entries affected by a rule change. A date rule
// affects one date; a recurring rule affects every date.
func (cr *CachedResolver) Invalidate(ctx context.Context, scope, date string) {
	if scope == "date" && date != "" {
		cr.cache.InvalidateDate(ctx, date)
		return
	}
	_ = cr.cache.InvalidateAll(ctx)
}
