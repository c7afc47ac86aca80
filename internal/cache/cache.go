// Package cache provides the process-lifetime response cache shared by all
// in-flight pipelines. Entries are keyed by a digest of the resource
// identifier and operation kind and evicted lazily on read once their age
// reaches the TTL. Nothing survives a restart; that is deliberate.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultTTL is how long responses stay usable unless configured otherwise.
const DefaultTTL = 3600 * time.Second

type entry struct {
	payload   interface{}
	createdAt time.Time
}

// Cache is a mutex-guarded in-memory store. A single coarse lock is
// sufficient at expected call volumes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache with the given TTL (DefaultTTL when ttl <= 0).
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock injects the time source, which tests use to control expiry.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Key derives the deterministic cache key for a resource and operation.
func Key(resourceID, operation string) string {
	sum := md5.Sum([]byte(resourceID + ":" + operation))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached payload for (resourceID, operation). An entry whose
// age has reached the TTL is removed and treated as absent; the check and
// eviction happen atomically under the cache lock.
func (c *Cache) Get(resourceID, operation string) (interface{}, bool) {
	key := Key(resourceID, operation)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.payload, true
}

// Set stores payload for (resourceID, operation), resetting its age.
func (c *Cache) Set(resourceID, operation string, payload interface{}) {
	key := Key(resourceID, operation)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload: payload, createdAt: c.now()}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
