package featurecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process cache backend for single-node deployments. The TTL
// is fixed at construction; per-call TTLs are ignored by the expirable LRU.
type LRU struct {
	lru *expirable.LRU[string, []byte]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 1024
	}
	return &LRU{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) MGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := c.lru.Get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *LRU) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.lru.Add(key, val)
	return nil
}

func (c *LRU) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}
