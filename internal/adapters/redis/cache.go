// Package redis provides Redis-backed adapters.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

var _ ports.Cache = (*Cache)(nil)

// DefaultKeyPrefix namespaces every key written by Cache.
const DefaultKeyPrefix = "ecole-ui:"

// Cache implements ports.Cache on Redis.
type Cache struct {
	client redis.UniversalClient
	prefix string
}

// NewCache creates a Cache using DefaultKeyPrefix.
func NewCache(client redis.UniversalClient) *Cache {
	return NewCacheWithPrefix(client, DefaultKeyPrefix)
}

// NewCacheWithPrefix creates a Cache with a custom key prefix.
func NewCacheWithPrefix(client redis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Set stores value under key. A ttl <= 0 keeps the key until deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns nil, nil for a missing key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	result, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

// Delete removes key and reports whether it existed.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	n, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// Health pings the server.
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
