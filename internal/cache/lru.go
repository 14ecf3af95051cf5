// Package cache provides the bounded in-process memo cache used for
// third-party lookups.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const DefaultSize = 128

// LoadFunc computes the value for a key on a cache miss.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// LRU is a capacity-bounded least-recently-used cache with single-flight
// population: concurrent misses for the same key share one LoadFunc call.
type LRU[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group
}

// NewLRU creates a cache holding at most size entries. A non-positive size
// falls back to DefaultSize.
func NewLRU[V any](size int) (*LRU[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU[V]{entries: entries}, nil
}

// GetOrLoad returns the cached value for key, or runs load exactly once across
// concurrent callers and caches its result. Errors are returned to every
// waiting caller and are not cached. load runs detached from ctx's
// cancellation so one caller giving up does not fail the others sharing the
// flight; it keeps ctx's values and should bound itself with its own timeout.
func (c *LRU[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V]) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have populated the key between the miss and Do.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := load(context.WithoutCancel(ctx), key)
		if err != nil {
			return v, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}
