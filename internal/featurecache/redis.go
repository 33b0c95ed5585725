package featurecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared cache backend for multi-node deployments.
type Redis struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

func NewRedis(ctx context.Context, addr string, defaultTTL time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("featurecache: redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("featurecache: redis ping: %w", err)
	}
	return &Redis{rdb: rdb, defaultTTL: defaultTTL}, nil
}

// MGet returns a map of found keys to their values; missing keys are simply
// absent.
func (c *Redis) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("featurecache: redis MGET %d keys: %w", len(keys), err)
	}
	out := make(map[string][]byte, len(vals))
	for i, v := range vals {
		if v == nil {
			continue // missing key
		}
		switch t := v.(type) {
		case string:
			out[keys[i]] = []byte(t)
		case []byte:
			out[keys[i]] = t
		}
	}
	return out, nil
}

func (c *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("featurecache: redis SET %q: %w", key, err)
	}
	return nil
}

func (c *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("featurecache: redis DEL %d keys: %w", len(keys), err)
	}
	return nil
}

func (c *Redis) Close() error { return c.rdb.Close() }
