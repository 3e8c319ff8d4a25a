package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how stale a cached history page or stats view
// may get.
const DefaultCacheTTL = 30 * time.Second

// Cache is a Redis cache-aside layer over history reads. All methods are
// safe to call on a nil receiver, which turns them into no-ops so the
// module keeps serving from the database when Redis is unavailable.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  cacheStats
}

type cacheStats struct {
	hits   uint64
	misses uint64
	errors uint64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors"`
}

// NewCache creates a cache over the Redis client.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func pageKey(room string, page, limit int) string {
	return fmt.Sprintf("messages:%s:%d:%d", room, page, limit)
}

func statsKey(room string) string {
	return "stats:" + room
}

// Get loads a cached value into dest, reporting whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			atomic.AddUint64(&c.stats.misses, 1)
			return false, nil
		}
		atomic.AddUint64(&c.stats.errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.hits, 1)
	return true, nil
}

// Set stores a value under the key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// InvalidateRoom drops every cached page and the stats entry for a room.
// Called after any write that changes the room's history.
func (c *Cache) InvalidateRoom(ctx context.Context, room string) error {
	if c == nil {
		return nil
	}

	var cursor uint64
	pattern := c.prefix + "messages:" + room + ":*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			atomic.AddUint64(&c.stats.errors, 1)
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				atomic.AddUint64(&c.stats.errors, 1)
				return fmt.Errorf("cache delete error: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := c.client.Del(ctx, c.prefix+statsKey(room)).Err(); err != nil {
		atomic.AddUint64(&c.stats.errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Hits:   atomic.LoadUint64(&c.stats.hits),
		Misses: atomic.LoadUint64(&c.stats.misses),
		Errors: atomic.LoadUint64(&c.stats.errors),
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
