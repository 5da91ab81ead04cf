// Package cache holds per-symbol resources for a fixed time-to-live.
//
// Expiry is lazy: an entry past its TTL stays in the map until it is read,
// swept, evicted, or cleared. There is no size bound.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sfinmcp/internal/domain"
)

// Factory builds the resource for a canonical key on a cache miss.
type Factory[V any] func(ctx context.Context, key string) (V, error)

type config struct {
	now     func() time.Time
	metrics domain.Metrics
	logger  *zap.Logger
}

type Option func(*config)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func WithMetrics(metrics domain.Metrics) Option {
	return func(c *config) { c.metrics = metrics }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// TTLCache maps canonical symbols to resources created at most once per TTL.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	flights singleflight.Group
	// gen advances on Evict and Clear so that a miss in flight across
	// either does not reinsert its result.
	gen uint64

	now     func() time.Time
	metrics domain.Metrics
	logger  *zap.Logger
}

// New creates a cache. A non-positive ttl uses domain.DefaultCacheTTL.
func New[V any](ttl time.Duration, opts ...Option) *TTLCache[V] {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	cfg := config{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     cfg.now,
		metrics: cfg.metrics,
		logger:  cfg.logger.Named("cache"),
	}
}

// Canonical normalizes a symbol into its cache key.
func Canonical(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// GetOrCreate returns the live resource for key or builds one with factory.
// The factory runs outside the cache lock; concurrent misses for the same
// key share a single factory call. A caller whose ctx ends stops waiting
// without failing the others. Factory errors leave the cache unchanged.
func (c *TTLCache[V]) GetOrCreate(ctx context.Context, key string, factory Factory[V]) (V, error) {
	var zero V
	key = Canonical(key)
	if key == "" {
		return zero, domain.E(domain.KindInvalidArgument, "cache.get", "symbol is required", nil)
	}

	if value, ok := c.lookup(key); ok {
		c.observe(domain.CacheEventHit, 1)
		c.logger.Debug("cache hit", zap.String("symbol", key))
		return value, nil
	}

	// The flight outlives any single caller: it runs on a context that is
	// not cancelled with ctx, and each caller waits on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		c.observe(domain.CacheEventMiss, 1)
		c.logger.Debug("cache miss", zap.String("symbol", key))

		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		value, err := factory(flightCtx, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		stale := c.gen != gen
		if !stale {
			c.entries[key] = entry[V]{value: value, createdAt: c.now()}
		}
		size := len(c.entries)
		c.mu.Unlock()
		if stale {
			c.logger.Debug("cache insert skipped after clear", zap.String("symbol", key))
			return value, nil
		}
		c.setSize(size)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.logger.Debug("cache miss shared", zap.String("symbol", key))
		}
		value, _ := res.Val.(V)
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// lookup returns a live entry. An expired entry is removed.
func (c *TTLCache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) < c.ttl {
		return e.value, true
	}
	delete(c.entries, key)
	c.observe(domain.CacheEventExpire, 1)
	c.setSize(len(c.entries))
	c.logger.Debug("cache entry expired", zap.String("symbol", key))
	return zero, false
}

// Evict removes key and reports whether it was present. A miss in flight
// for any key completes for its callers but is not inserted.
func (c *TTLCache[V]) Evict(key string) bool {
	key = Canonical(key)

	c.mu.Lock()
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.gen++
	size := len(c.entries)
	c.mu.Unlock()

	if ok {
		c.observe(domain.CacheEventEvict, 1)
		c.setSize(size)
	}
	return ok
}

// Clear removes every entry and returns how many were removed. Misses
// still in flight complete for their callers but are not inserted.
func (c *TTLCache[V]) Clear() int {
	c.mu.Lock()
	count := len(c.entries)
	c.entries = make(map[string]entry[V])
	c.gen++
	c.mu.Unlock()

	c.observe(domain.CacheEventEvict, count)
	c.setSize(0)
	return count
}

// SweepExpired removes every entry whose age is at least the TTL and
// returns the removed keys in sorted order.
func (c *TTLCache[V]) SweepExpired() []string {
	c.mu.Lock()
	now := c.now()
	var removed []string
	for key, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, key)
			removed = append(removed, key)
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	sort.Strings(removed)
	c.observe(domain.CacheEventExpire, len(removed))
	c.setSize(size)
	for _, key := range removed {
		c.logger.Debug("swept expired entry", zap.String("symbol", key))
	}
	return removed
}

// Stats partitions entries into active and expired without mutating the cache.
// LoggedIn is left for the caller to fill.
func (c *TTLCache[V]) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := domain.CacheStats{
		Total:      len(c.entries),
		ExpiryHour: c.ttl.Hours(),
	}
	for _, e := range c.entries {
		if now.Sub(e.createdAt) < c.ttl {
			stats.Active++
		} else {
			stats.Expired++
		}
	}
	return stats
}

func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Contains reports whether key is present, live or not.
func (c *TTLCache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[Canonical(key)]
	return ok
}

func (c *TTLCache[V]) observe(event domain.CacheEvent, count int) {
	if c.metrics == nil || count <= 0 {
		return
	}
	c.metrics.ObserveCache(event, count)
}

func (c *TTLCache[V]) setSize(size int) {
	if c.metrics == nil {
		return
	}
	c.metrics.SetCacheEntries(size)
}
