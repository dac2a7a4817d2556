package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/breatheroute/tripplanner/internal/planner"
)

// CachedLoaderConfig holds configuration for the snapshot cache.
type CachedLoaderConfig struct {
	// Loader supplies fresh snapshots (required).
	Loader planner.NetworkLoader

	// Logger for cache operations.
	Logger zerolog.Logger

	// TTL is how long a snapshot is served before reloading (default: 5 minutes).
	TTL time.Duration

	// StaleIfErrorTTL allows serving an expired snapshot when a reload fails,
	// measured from the snapshot load time. Zero disables stale serving.
	StaleIfErrorTTL time.Duration

	// LoadTimeout bounds a single upstream load (default: 2 minutes).
	// Loads are shared between callers and are not canceled when the
	// caller that started them goes away.
	LoadTimeout time.Duration

	// Now is the clock used for expiry (default: time.Now).
	Now func() time.Time
}

// CachedLoader caches a network snapshot for a TTL.
// It implements planner.NetworkLoader and is safe for concurrent use.
type CachedLoader struct {
	loader          planner.NetworkLoader
	logger          zerolog.Logger
	ttl             time.Duration
	staleIfErrorTTL time.Duration
	loadTimeout     time.Duration
	now             func() time.Time
	group           singleflight.Group

	mu        sync.RWMutex
	routes    []planner.Route
	loadedAt  time.Time
	expiresAt time.Time
	stats     counters
	hits      atomic.Int64
}

type counters struct {
	misses    int64
	loads     int64
	failures  int64
	stale     int64
	lastError string
}

// CacheStats describes the current cache state.
type CacheStats struct {
	HasData   bool
	Routes    int
	Stops     int
	LoadedAt  time.Time
	ExpiresAt time.Time
	IsExpired bool

	Hits        int64
	Misses      int64
	Loads       int64
	Failures    int64
	StaleServed int64
	LastError   string
}

// NewCachedLoader creates a new snapshot cache.
func NewCachedLoader(cfg CachedLoaderConfig) *CachedLoader {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	loadTimeout := cfg.LoadTimeout
	if loadTimeout == 0 {
		loadTimeout = 2 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &CachedLoader{
		loader:          cfg.Loader,
		logger:          cfg.Logger,
		ttl:             ttl,
		staleIfErrorTTL: cfg.StaleIfErrorTTL,
		loadTimeout:     loadTimeout,
		now:             now,
	}
}

// LoadNetwork returns the cached snapshot, reloading it once expired.
// Callers must treat the returned routes as read-only.
func (c *CachedLoader) LoadNetwork(ctx context.Context) ([]planner.Route, error) {
	c.mu.RLock()
	if c.routes != nil && c.now().Before(c.expiresAt) {
		routes := c.routes
		c.mu.RUnlock()
		c.hits.Add(1)
		return routes, nil
	}
	c.mu.RUnlock()

	return c.reload(ctx, false)
}

// Refresh reloads the snapshot regardless of expiry and returns the number
// of routes loaded.
func (c *CachedLoader) Refresh(ctx context.Context) (int, error) {
	routes, err := c.reload(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(routes), nil
}

// Invalidate drops the cached snapshot.
func (c *CachedLoader) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = nil
	c.loadedAt = time.Time{}
	c.expiresAt = time.Time{}
}

// Stats returns a copy of the cache state and counters.
func (c *CachedLoader) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{
		HasData:     c.routes != nil,
		Routes:      len(c.routes),
		LoadedAt:    c.loadedAt,
		ExpiresAt:   c.expiresAt,
		Hits:        c.hits.Load(),
		Misses:      c.stats.misses,
		Loads:       c.stats.loads,
		Failures:    c.stats.failures,
		StaleServed: c.stats.stale,
		LastError:   c.stats.lastError,
	}
	if stats.HasData {
		stats.IsExpired = !c.now().Before(c.expiresAt)
	}
	for _, r := range c.routes {
		stats.Stops += len(r.Stops)
	}
	return stats
}

// reload joins or starts the shared load for its key and waits for it
// until ctx is done. Forced and expiry-driven reloads use separate keys so
// a Refresh never settles for a snapshot that was still fresh.
func (c *CachedLoader) reload(ctx context.Context, force bool) ([]planner.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := "load"
	if force {
		key = "refresh"
	}
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(ctx, force)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]planner.Route), nil
	}
}

func (c *CachedLoader) load(ctx context.Context, force bool) ([]planner.Route, error) {
	c.mu.RLock()
	// Another load may have finished since the caller's fast path missed.
	if !force && c.routes != nil && c.now().Before(c.expiresAt) {
		routes := c.routes
		c.mu.RUnlock()
		c.hits.Add(1)
		return routes, nil
	}
	c.mu.RUnlock()

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
	defer cancel()

	start := c.now()
	routes, err := c.loader.LoadNetwork(loadCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.misses++

	if err != nil {
		c.stats.failures++
		c.stats.lastError = err.Error()
		c.logger.Error().Err(err).Msg("failed to load transit network")

		if c.routes != nil && c.staleIfErrorTTL > 0 && c.now().Before(c.loadedAt.Add(c.staleIfErrorTTL)) {
			c.stats.stale++
			c.logger.Warn().
				Time("loaded_at", c.loadedAt).
				Msg("serving stale transit network due to load error")
			return c.routes, nil
		}
		return nil, err
	}

	if routes == nil {
		routes = []planner.Route{}
	}

	c.routes = routes
	c.loadedAt = c.now()
	c.expiresAt = c.loadedAt.Add(c.ttl)
	c.stats.loads++
	c.stats.lastError = ""

	c.logger.Info().
		Int("routes", len(routes)).
		Dur("duration", c.now().Sub(start)).
		Time("expires_at", c.expiresAt).
		Msg("transit network loaded")

	return routes, nil
}

var _ planner.NetworkLoader = (*CachedLoader)(nil)
