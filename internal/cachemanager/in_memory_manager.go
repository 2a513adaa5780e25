package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"regatta/internal/log"
)

const DefaultExpiration = 5 * time.Minute
const DefaultCleanupInterval = 15 * time.Minute

// InMemoryCacheManager is the concrete CacheManager backed by go-cache.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemoryCacheManager initializes an in-memory cache. useCase labels the
// cache in log output (e.g. "subjects", "topics").
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item from the cache by its key.
func (c *InMemoryCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "useCase", c.useCase, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "useCase", c.useCase, "key", key)
	return v, true
}

// Set stores a value with a TTL. ttl <= 0 uses the cache default.
func (c *InMemoryCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes values by key.
func (c *InMemoryCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
	return nil
}

// Flush drops every cached value. Called on environment switches and after
// destructive operations so listings are always re-derived from the backend.
func (c *InMemoryCacheManager[K, V]) Flush(ctx context.Context) error {
	c.cache.Flush()
	return nil
}
