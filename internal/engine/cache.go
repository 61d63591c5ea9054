package engine

import (
	"sync"
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// cacheKey identifies a cached higher-timeframe series.
type cacheKey struct {
	symbol    string
	timeframe string
}

type cacheEntry struct {
	series    *series.Series
	storedAt  time.Time
	expiresAt time.Time
}

// seriesCache is the engine's only cross-call state: a bounded, TTL-expiring
// cache of higher-timeframe series keyed by (symbol, higher timeframe).
// Safe for use from concurrent per-symbol analyses.
type seriesCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[cacheKey]*cacheEntry
}

func newSeriesCache(ttl time.Duration, maxEntries int) *seriesCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &seriesCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[cacheKey]*cacheEntry),
	}
}

// Get returns the cached series or nil when absent or expired.
func (c *seriesCache) Get(key cacheKey) *series.Series {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.series
}

// Set stores a series, evicting the oldest entry when the bound is reached.
func (c *seriesCache) Set(key cacheKey, s *series.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		var oldestKey cacheKey
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = &cacheEntry{series: s, storedAt: now, expiresAt: now.Add(c.ttl)}
}

// Len returns the current entry count, expired entries included.
func (c *seriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
