// internal/app/system/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys and patterns for cached views. Every write that changes lead counts
// invalidates StatsPattern.
const (
	StatsPattern  = "stats:*"
	AdminStatsKey = "stats:admin"
)

// AgentStatsKey is the cache key for one agent's dashboard counts.
func AgentStatsKey(agentID string) string { return "stats:agent:" + agentID }

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// Cache is a short-lived store for derived read views. Values expire after
// their TTL; Invalidate removes every key matching a glob pattern
// ("stats:*", "stats:agent:?*").
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) (int, error)
	Close() error
}

// Fetch returns the cached JSON value for key, decoding into dst. On a miss
// it calls load, stores the result for ttl, and decodes it into dst. The
// returned bool reports whether the value came from the cache.
//
// A cache read or write failure falls through to load; the view is always
// served.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, dst *T, load func(context.Context) (T, error)) (bool, error) {
	if raw, ok, err := c.Get(ctx, key); err == nil && ok {
		if err := json.Unmarshal(raw, dst); err == nil {
			return true, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return false, err
	}
	*dst = v

	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	_ = c.Set(ctx, key, raw, ttl)
	return false, nil
}
