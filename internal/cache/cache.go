// Package cache provides a TTL cache with single-flight fetch deduplication.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Class selects the expiry policy for an entry. Live data turns over fast,
// static data can sit for the full window.
type Class string

const (
	ClassLive   Class = "live"
	ClassStatic Class = "static"
)

const (
	defaultLiveTTL       = 15 * time.Second
	defaultStaticTTL     = 60 * time.Second
	defaultSweepInterval = 5 * time.Minute
)

// FetchFunc loads a value on cache miss. Errors are returned to every
// caller waiting on the same key and nothing is stored.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	LiveTTL       time.Duration
	StaticTTL     time.Duration
	SweepInterval time.Duration
	Clock         scoreboard.Clock
	Logger        *zap.Logger
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a keyed TTL cache. Concurrent misses on the same key share a
// single fetch.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	group     singleflight.Group
	liveTTL   time.Duration
	staticTTL time.Duration
	clock     scoreboard.Clock
	logger    *zap.Logger

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// New builds a Cache and starts the background expiry sweep.
func New(opts Options) *Cache {
	if opts.LiveTTL <= 0 {
		opts.LiveTTL = defaultLiveTTL
	}
	if opts.StaticTTL <= 0 {
		opts.StaticTTL = defaultStaticTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Cache{
		entries:   make(map[string]entry),
		liveTTL:   opts.LiveTTL,
		staticTTL: opts.StaticTTL,
		clock:     opts.Clock,
		logger:    opts.Logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go c.sweepLoop(opts.SweepInterval)
	return c
}

// GetOrFetch returns the cached value for key, or runs fn to load it.
// Only one fetch per key runs at a time; late arrivals share its result.
func (c *Cache) GetOrFetch(ctx context.Context, key string, class Class, fn FetchFunc) (any, error) {
	if v, ok := c.get(key); ok {
		metrics.ObserveCacheHit(string(class))
		return v, nil
	}
	metrics.ObserveCacheMiss(string(class))

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Another caller may have populated the entry while this one
		// waited its turn in the group.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, class, v)
		return v, nil
	})
	if shared {
		metrics.ObserveCacheSharedFetch()
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep goroutine. Entries remain readable until expiry
// but no further cleanup runs.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		<-c.doneCh
	})
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, class Class, v any) {
	ttl := c.staticTTL
	if class == ClassLive {
		ttl = c.liveTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: v, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) now() time.Time {
	if c.clock != nil {
		return c.clock.Now()
	}
	return time.Now()
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer close(c.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.logger.Debug("cache sweep", zap.Int("removed", removed))
	}
}
