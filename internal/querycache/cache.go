// Package querycache keeps read copies of upstream lists. Entries are never
// patched in place: mutations invalidate a key prefix and the next read re-fetches.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("querycache: miss")

// ErrStale is returned by SetIfGeneration when an invalidation ran after the
// generation was read.
var ErrStale = errors.New("querycache: invalidated during load")

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation advances on every Invalidate.
	Generation(ctx context.Context) (uint64, error)
	// SetIfGeneration stores value only while the generation still equals gen.
	SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen uint64) error
	// Invalidate drops every key starting with one of the prefixes.
	Invalidate(ctx context.Context, prefixes ...string) error
}

// Fetch returns the cached value for key or calls load, caching its result for ttl.
// A result loaded across an invalidation is returned but not cached. Cache
// failures are never fatal: the loader result wins.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	if raw, err := c.Get(ctx, key); err == nil {
		var cached T
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	}

	gen, genErr := c.Generation(ctx)
	v, err := load(ctx)
	if err != nil || genErr != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		_ = c.SetIfGeneration(ctx, key, raw, ttl, gen)
	}
	return v, nil
}
