// Package watcher classifies inbound ledger batches and feeds
// qualifying deposits to the forwarder, exactly once each.
package watcher

import "sync"

// DefaultNonceCapacity bounds the seen-nonce cache.
const DefaultNonceCapacity = 100

// NonceCache is a bounded FIFO set of transfer nonces already acted
// on. Once capacity is exceeded the oldest entries are evicted, so
// only the most recent entries remain queryable as seen.
type NonceCache struct {
	mu       sync.Mutex
	capacity int
	order    []int64
	seen     map[int64]struct{}
}

// NewNonceCache creates a cache holding at most capacity nonces.
func NewNonceCache(capacity int) *NonceCache {
	if capacity <= 0 {
		capacity = DefaultNonceCapacity
	}
	return &NonceCache{
		capacity: capacity,
		seen:     make(map[int64]struct{}, capacity),
	}
}

// Seen reports whether the nonce is in the cache.
func (c *NonceCache) Seen(nonce int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[nonce]
	return ok
}

// Mark inserts the nonce, evicting the oldest entries past capacity.
func (c *NonceCache) Mark(nonce int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[nonce]; ok {
		return
	}
	c.seen[nonce] = struct{}{}
	c.order = append(c.order, nonce)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
}

// Len returns the number of cached nonces.
func (c *NonceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// InFlight tracks deposits currently being processed, keyed by the
// deposit's dedup key. It prevents re-entrant processing of the same
// physical event while its pipeline is still running.
type InFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewInFlight creates an empty in-flight set.
func NewInFlight() *InFlight {
	return &InFlight{keys: make(map[string]struct{})}
}

// TryAcquire adds the key if absent. Returns false when the key is
// already being processed.
func (f *InFlight) TryAcquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

// Release removes the key once processing finishes, success or not.
func (f *InFlight) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}
