package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
)

type entry struct {
	readings  []models.Reading
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// TTLCache memoizes fetch results per (provider, params) key.
//
// Expired entries are evicted lazily: they stay in the map until the next
// successful fetch overwrites them, which is what lets a failed refresh fall
// back to a stale value instead of a blank. Failures are never stored, so a
// transient outage retries on every call instead of poisoning a TTL window.
// Concurrent misses for the same key coalesce into one in-flight fetch.
type TTLCache struct {
	mu      sync.RWMutex
	m       map[string]entry
	sf      singleflight.Group
	metrics repository.Metrics

	// now is swappable in tests for a synthetic clock.
	now func() time.Time
}

// New creates an empty cache.
func New(m repository.Metrics) *TTLCache {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &TTLCache{m: make(map[string]entry), metrics: m, now: time.Now}
}

// SetClock replaces the cache's time source. Tests only.
func (c *TTLCache) SetClock(now func() time.Time) { c.now = now }

// GetOrFetch returns the cached readings for key while they are fresh,
// otherwise invokes fetch. On fetch failure an expired value is returned
// with stale=true when one exists, alongside the error.
func (c *TTLCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch repository.FetchFunc) ([]models.Reading, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if ok && e.valid(c.now()) {
		c.metrics.RecordCacheLookup(true)
		return e.readings, false, nil
	}
	c.metrics.RecordCacheLookup(false)

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check under coalescing: a concurrent caller may have already
		// refreshed this key while we waited for the flight slot.
		c.mu.RLock()
		e, ok := c.m[key]
		c.mu.RUnlock()
		if ok && e.valid(c.now()) {
			return e.readings, nil
		}

		readings, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.m[key] = entry{readings: readings, fetchedAt: c.now(), ttl: ttl}
		c.mu.Unlock()
		return readings, nil
	})

	if err != nil {
		// Serve the expired value, if any, marked stale. Last-write-wins:
		// whatever a later successful fetch stores replaces it.
		c.mu.RLock()
		old, had := c.m[key]
		c.mu.RUnlock()
		if had {
			return old.readings, true, err
		}
		return nil, false, err
	}

	return v.([]models.Reading), false, nil
}

// Len reports the number of stored entries, fresh or expired.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

var _ repository.Cache = (*TTLCache)(nil)
