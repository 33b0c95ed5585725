// Package featurecache caches fetched infrastructure features per H3 tile,
// so repeated analyses over the same area of interest do not refetch from
// the upstream geodata source. The cache is an explicit collaborator passed
// into the feature loader, never hidden process-wide state.
package featurecache

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Cache interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TileKey builds the cache key for one H3 cell and one upstream tag filter.
// The filter is hashed so arbitrary filter text cannot break key syntax.
func TileKey(cell, filter string) string {
	return fmt.Sprintf("infra:%s:f=%016x", cell, xxhash.Sum64String(filter))
}
