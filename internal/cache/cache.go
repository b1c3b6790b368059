// Package cache holds resolved tool lists keyed by normalized query.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/toolscout/internal/model"
)

// DefaultTTL is how long a resolved query stays fresh.
const DefaultTTL = 5 * time.Minute

// DefaultMaxEntries bounds the in-memory cache.
const DefaultMaxEntries = 1000

// Cache stores tool lists by key. Implementations must be safe for
// concurrent use. A failing or unavailable cache behaves as a miss.
type Cache interface {
	Get(key string) ([]model.Tool, bool)
	Set(key string, tools []model.Tool)
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source (for testing).
func WithClock(now Clock) Option {
	return func(c *Memory) { c.now = now }
}

// WithMaxEntries bounds the number of cached queries.
func WithMaxEntries(n int) Option {
	return func(c *Memory) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// Memory is a concurrent-safe LRU cache with TTL expiration.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*model.CacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	now        Clock
	hits       atomic.Int64
	misses     atomic.Int64
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewMemory creates a Memory cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Memory{
		entries:    make(map[string]*model.CacheEntry),
		maxEntries: DefaultMaxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns a copy of the cached tools. Expired entries are evicted and
// reported as a miss.
func (c *Memory) Get(key string) ([]model.Tool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if entry.Expired(c.now(), c.ttl) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return model.CloneTools(entry.Tools), true
}

// Set stores a copy of tools, evicting the least recently used entry when
// at capacity.
func (c *Memory) Set(key string, tools []model.Tool) {
	entry := &model.CacheEntry{Key: key, Tools: model.CloneTools(tools), StoredAt: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Stats returns cache performance statistics.
func (c *Memory) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Memory) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Noop never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(string) ([]model.Tool, bool) { return nil, false }

// Set discards tools.
func (Noop) Set(string, []model.Tool) {}
