package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/logging"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Cache stores fetched values under string keys with a per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Purge()
}

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache is an in-memory TTL cache. The clock is injectable so
// expiry can be tested without sleeping.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache on the wall clock.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(time.Now)
}

// NewMemoryCacheWithClock creates an in-memory cache on the given clock.
func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns the live value under key, if any. Expired entries read as
// absent and are dropped lazily.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have raced us.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key for ttl.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes key.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge removes every entry.
func (c *MemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedProvider decorates a Provider with a TTL cache and collapses
// concurrent fetches of the same key into one upstream call. Errors are
// never cached; the next caller retries upstream.
type CachedProvider struct {
	inner  Provider
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// Cached wraps inner with cache. A non-positive ttl falls back to five
// minutes.
func Cached(inner Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the cache logger and returns the provider.
func (p *CachedProvider) WithLogger(logger zerolog.Logger) *CachedProvider {
	p.logger = logger
	return p
}

// Name returns the inner provider's name.
func (p *CachedProvider) Name() string { return p.inner.Name() }

// GetQuote returns a cached quote or fetches one.
func (p *CachedProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	key := fmt.Sprintf("quote:%s", symbol)
	return cachedFetch(ctx, p, key, func(ctx context.Context) (*models.Quote, error) {
		return p.inner.GetQuote(ctx, symbol)
	})
}

// GetHistory returns a cached series or fetches one. The key carries
// the resolution and range so distinct windows cache separately.
func (p *CachedProvider) GetHistory(ctx context.Context, req HistoryRequest) (*models.PriceSeries, error) {
	key := fmt.Sprintf("history:%s:%s:%s", req.Symbol, req.Resolution, req.Range)
	return cachedFetch(ctx, p, key, func(ctx context.Context) (*models.PriceSeries, error) {
		return p.inner.GetHistory(ctx, req)
	})
}

// GetFundamentals returns cached fundamentals or fetches them.
func (p *CachedProvider) GetFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	key := fmt.Sprintf("fundamentals:%s", symbol)
	return cachedFetch(ctx, p, key, func(ctx context.Context) (*models.Fundamentals, error) {
		return p.inner.GetFundamentals(ctx, symbol)
	})
}

// GetNewsSentiment returns cached news or fetches it.
func (p *CachedProvider) GetNewsSentiment(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	key := fmt.Sprintf("news:%s:%d", symbol, limit)
	return cachedFetch(ctx, p, key, func(ctx context.Context) ([]models.NewsItem, error) {
		return p.inner.GetNewsSentiment(ctx, symbol, limit)
	})
}

// SearchSymbols returns cached matches or fetches them.
func (p *CachedProvider) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	key := fmt.Sprintf("search:%s", query)
	return cachedFetch(ctx, p, key, func(ctx context.Context) ([]models.SymbolMatch, error) {
		return p.inner.SearchSymbols(ctx, query)
	})
}

// cachedFetch is the shared lookup-or-fetch path. Concurrent callers of
// the same key share one upstream call through the singleflight group.
func cachedFetch[T any](ctx context.Context, p *CachedProvider, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := p.cache.Get(key); ok {
		logging.LogCache(p.logger, key, true)
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		// A key collision across value types; drop and refetch.
		p.cache.Delete(key)
	}
	logging.LogCache(p.logger, key, false)

	v, err, _ := p.group.Do(key, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		p.cache.Set(key, value, p.ttl)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
