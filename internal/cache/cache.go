// Package cache implements the in-process, advisory report cache: a map
// keyed by canonical URL, bounded TTL, lazily evicted on read. Set stores
// whatever it is given; keeping BLOCKED and TIMEOUT reports out of the
// cache is up to the caller (see Set).
package cache

import (
	"sync"
	"time"

	"github.com/khanhnv2901/webaudit/internal/model"
)

// Entry is one cached report and its lifecycle timestamps.
type Entry struct {
	Payload   *model.Report
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a process-local, TTL-bounded report cache. There is no LRU
// bound; memory is reclaimed only by TTL eviction on read. A naive map
// with a mutex is sufficient — there's no requirement for global
// ordering of writes vs reads.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Entry
}

// New returns a Cache with the given TTL applied to every Set.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]Entry),
	}
}

// Get returns the cached report for key if present and not expired. A
// lookup past expiry evicts the entry and returns (nil, false).
func (c *Cache) Get(key string) (*model.Report, bool) {
	entry, ok := c.GetEntry(key)
	if !ok {
		return nil, false
	}
	return entry.Payload, true
}

// GetEntry is like Get but also returns the entry's lifecycle timestamps,
// needed by callers that report cacheAgeMs alongside the cached payload.
func (c *Cache) GetEntry(key string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Set stores payload under key. Callers must only call this for reports
// where payload.Blocked and payload.Timeout are both false and no
// snapshot was requested for this audit.
func (c *Cache) Set(key string, payload *model.Report) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = Entry{
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not —
// exposed for tests and diagnostics only.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
