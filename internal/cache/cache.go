// Package cache memoizes per-station resolution results in Redis. The
// cache is strictly best-effort: a nil *Cache or an unreachable Redis
// degrades every operation to a no-op, never an error.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ActiveByStationPrefix keys dashboard resolutions per station code.
	ActiveByStationPrefix = "active_by_station:"
	// TabletsActivePrefix keys tablet resolutions (with image payloads).
	TabletsActivePrefix = "tablets_active:"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at redisURL. Entries expire after ttl.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Cache{client: client, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// TTL returns the configured entry lifetime, zero on a nil cache.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get unmarshals the cached value for key into dest and reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// InvalidatePattern deletes every key matching the glob pattern.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: del %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan %s: %v", pattern, err)
	}
}

// InvalidateStationResults drops every memoized per-station resolution,
// on both API surfaces. A single campaign or image edit can affect any
// number of stations, so invalidation is always wildcard.
func (c *Cache) InvalidateStationResults(ctx context.Context) {
	c.InvalidatePattern(ctx, ActiveByStationPrefix+"*")
	c.InvalidatePattern(ctx, TabletsActivePrefix+"*")
}
