// Package cachemanager provides a small generic cache used for remote
// listings (subjects, topics) so mode switches don't refetch on every entry.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the cache contract the app wires through mode services.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
