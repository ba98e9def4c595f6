package suggest

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultCacheCapacity = 200
	defaultCacheTTL      = time.Hour
)

type cacheEntry struct {
	suggestions []Suggestion
	insertedAt  time.Time
}

// Cache is a bounded TTL map for suggestion responses. Expiry is
// measured from insertion; reads never refresh an entry. When an insert
// pushes the map past capacity, one linear scan removes the single
// oldest entry, so the map can transiently overshoot capacity by one.
// Best-effort: entries are lost on restart.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]cacheEntry),
		capacity: defaultCacheCapacity,
		ttl:      defaultCacheTTL,
		now:      time.Now,
	}
}

// CacheKey normalizes title and category plus the sorted set of
// existing key-result titles into the cache key.
func CacheKey(title, category string, existing []string) string {
	key := normalize(title) + ":" + normalize(category)
	if len(existing) > 0 {
		sorted := make([]string, len(existing))
		for i, e := range existing {
			sorted[i] = normalize(e)
		}
		sort.Strings(sorted)
		key += ":" + strings.Join(sorted, ",")
	}
	return key
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Get returns the cached suggestions, treating expired entries as
// misses.
func (c *Cache) Get(key string) ([]Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.suggestions, true
}

// Set stores suggestions, evicting the globally oldest entry when over
// capacity.
func (c *Cache) Set(key string, suggestions []Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		suggestions: suggestions,
		insertedAt:  c.now(),
	}

	if len(c.entries) > c.capacity {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.insertedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Len reports the resident entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
