package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Default sizing for result caches
const (
	DefaultCapacity = 500
	DefaultTTL      = 5 * time.Minute
)

// Kind discriminates what a cached value was computed from, so parse
// results and analyzer results of identical content never collide.
type Kind string

const (
	KindParse Kind = "parse"
	KindMlint Kind = "mlint"
)

// Key identifies a cache entry by content fingerprint plus result kind.
// Keys derive from the exact bytes of the input, not the file identity,
// which keeps the cache correct under renames and duplicated content.
type Key struct {
	Hash uint64
	Kind Kind
}

// ContentKey builds a Key from raw content
func ContentKey(kind Kind, content string) Key {
	return Key{Hash: xxhash.Sum64String(content), Kind: kind}
}

// Stats contains hit/miss counters for a cache instance
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// entry wraps a cached value with its expiration time. Entries are
// immutable once stored; a newer value for the same key replaces the
// entry wholesale.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a capacity-bounded, TTL-bounded store for computed results.
// Eviction is LRU under capacity pressure and lazy on expiry: Get treats
// an entry past its TTL as a miss and drops it. Safe for concurrent use.
type Cache[V any] struct {
	mu    sync.Mutex
	lru   *lru.Cache[Key, *entry[V]]
	ttl   time.Duration
	stats Stats

	// now is swappable for TTL tests
	now func() time.Time
}

// New creates a Cache with the given capacity and TTL. Non-positive
// arguments fall back to the package defaults.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	inner, err := lru.New[Key, *entry[V]](capacity)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Cache[V]{
		lru: inner,
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached value for key. Expired entries are evicted and
// reported as misses.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Put stores a value under key, evicting the least-recently-used entry
// when the cache is at capacity
func (c *Cache[V]) Put(key Key, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.lru.Add(key, &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}); evicted {
		c.stats.Evictions++
	}
}

// Invalidate removes the entry for key if present
func (c *Cache[V]) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(key)
}

// Clear removes all entries
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of live entries, counting expired ones that have
// not yet been lazily evicted
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the hit/miss counters
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
