package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/claimscore/internal/engine"
	"github.com/okian/claimscore/pkg/logger"
	"github.com/okian/claimscore/pkg/metrics"
)

// DefaultTTL bounds how long a loaded handle is served before reload.
const DefaultTTL = 5 * time.Minute

// singleflight key; the cache holds exactly one model.
const slotKey = "model"

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithTTL overrides the handle time-to-live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets a custom logger for cache lifecycle events.
func WithCacheLogger(log logger.Logger) CacheOption {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// Stats is a point-in-time snapshot of the cache for observability.
type Stats struct {
	Loaded    bool          `json:"loaded"`
	HandleID  string        `json:"handle_id,omitempty"`
	Age       time.Duration `json:"age,omitempty"`
	TTL       time.Duration `json:"ttl"`
	Reloads   uint64        `json:"reloads"`
	Evictions uint64        `json:"evictions"`
}

// Cache holds at most one live Handle and reloads it after the TTL. The
// slot is replaced atomically: readers either get the still-valid current
// handle or wait for the single in-flight reload, never a half-initialized
// or disposed one. The evicted handle is disposed asynchronously so a slow
// engine teardown cannot delay serving the fresh handle.
type Cache struct {
	loader engine.Loader
	path   string
	ttl    time.Duration
	log    logger.Logger

	mu      sync.RWMutex
	current *Handle
	closed  bool

	group     singleflight.Group
	reloads   atomic.Uint64
	evictions atomic.Uint64
}

// NewCache creates a cache that loads engine sessions from path via loader.
func NewCache(loader engine.Loader, path string, opts ...CacheOption) *Cache {
	c := &Cache{
		loader: loader,
		path:   path,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoad returns a live handle, loading or reloading as needed. Failed
// loads surface ErrModelUnavailable when the artifact is absent; callers
// decide whether to fall back. Only one reload is ever in flight.
func (c *Cache) GetOrLoad(ctx context.Context) (*Handle, error) {
	if h, err, ok := c.fresh(); ok {
		return h, err
	}

	v, err, _ := c.group.Do(slotKey, func() (any, error) {
		// A concurrent flight may have refreshed the slot already.
		if h, err, ok := c.fresh(); ok {
			return h, err
		}
		return c.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// fresh returns the current handle when it is still valid. The bool reports
// whether the lookup was decided (including the closed case).
func (c *Cache) fresh() (*Handle, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCacheClosed, true
	}
	if c.current != nil && c.current.Age() < c.ttl {
		return c.current, nil, true
	}
	return nil, nil, false
}

// reload loads a new handle, swaps it into the slot, and schedules disposal
// of the evicted one. The swap is visible to readers before the old handle
// is touched.
func (c *Cache) reload(ctx context.Context) (*Handle, error) {
	eng, err := c.loader(ctx, c.path)
	if err != nil {
		metrics.RecordModelReloadError()
		if errors.Is(err, engine.ErrArtifactUnavailable) {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, fmt.Errorf("load model: %w", err)
	}

	next := NewHandle(eng)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		// Lost the race with Close; release the session we just opened.
		_ = next.Dispose()
		return nil, ErrCacheClosed
	}
	prev := c.current
	c.current = next
	c.mu.Unlock()

	c.reloads.Add(1)
	metrics.RecordModelReload()
	metrics.UpdateModelLoaded(true)
	if c.log != nil {
		c.log.Info(ctx, "model handle loaded",
			logger.String("handle_id", next.ID()),
			logger.Duration("ttl", c.ttl))
	}

	if prev != nil {
		c.evict(prev)
	}
	return next, nil
}

// evict disposes a replaced handle off the serving path. Dispose itself
// waits for in-flight predictions, so the goroutine is the only place a
// slow teardown is allowed to linger.
func (c *Cache) evict(h *Handle) {
	c.evictions.Add(1)
	metrics.RecordModelEviction()
	go func() {
		if err := h.Dispose(); err != nil && c.log != nil {
			c.log.Warn(context.Background(), "error disposing evicted model handle",
				logger.String("handle_id", h.ID()),
				logger.Error(err))
		}
	}()
}

// Stats snapshots the cache state.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		TTL:       c.ttl,
		Reloads:   c.reloads.Load(),
		Evictions: c.evictions.Load(),
	}
	if c.current != nil {
		s.Loaded = true
		s.HandleID = c.current.ID()
		s.Age = c.current.Age()
		metrics.UpdateModelAge(s.Age)
	}
	return s
}

// Close disposes the current handle and rejects further lookups. Disposal
// here is synchronous: shutdown must not leak the session.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	last := c.current
	c.current = nil
	c.mu.Unlock()

	metrics.UpdateModelLoaded(false)
	if last != nil {
		return last.Dispose()
	}
	return nil
}
