package multicache

import "sync"

// Cache is a thread-safe cache bounded by a total byte budget.
//
// Entries carry a caller-declared size. When an insert would push the total
// over the budget, least-recently-used entries are evicted first. Get returns
// shared handles that stay valid after eviction.
//
// The composite state (recency index, byte accounting, alias map) is guarded
// by a single lock, so every operation is atomic with respect to every other.
// Mutations are compute-then-commit: no operation can leave the byte total out
// of sync with the indexed entries.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	index   *recencyIndex[K, V]
	aliases map[K]K
	total   uint64 // sum of declared sizes of all indexed entries
	max     uint64 // byte budget

	onEvict EvictFunc[K, V]
	flight  callGroup[K, V]
}

// New creates an empty cache that will hold at most maxBytes of entries, as
// measured by their declared sizes.
//
// There is no upper bound on maxBytes. A budget of zero is legal: every Put
// stores its entry as an oversized singleton which the next Put evicts.
//
// Example:
//
//	c := multicache.New[string, []byte](64*1024*1024,
//	    multicache.WithCapacityHint[string, []byte](1024))
func New[K comparable, V any](maxBytes uint64, opts ...Option[K, V]) *Cache[K, V] {
	cfg := &config[K, V]{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Cache[K, V]{
		index:   newRecencyIndex[K, V](cfg.capacityHint),
		aliases: make(map[K]K),
		max:     maxBytes,
		onEvict: cfg.onEvict,
	}
}

// Put stores value under key with the given declared size in bytes.
//
// Any existing entry under key is removed first and its space reclaimed. If
// the new entry does not fit, oldest entries are evicted until it does. An
// entry whose size alone exceeds the budget is still stored, as the cache's
// only occupant, rather than rejected.
//
// Put has no failure mode and never blocks beyond the critical section.
func (c *Cache[K, V]) Put(key K, value V, size uint64) {
	c.PutHandle(key, NewHandle(value), size)
}

// PutHandle is Put for a value that is already wrapped in a shared handle,
// for example one obtained from Get on another key or shared with code
// outside the cache. The handle is stored as-is; no copy of the value is made.
func (c *Cache[K, V]) PutHandle(key K, h Handle[V], size uint64) {
	c.mu.Lock()

	if old, ok := c.index.remove(key); ok {
		c.total -= old.size
	}

	// Evict oldest entries until the new one fits. An empty index that still
	// cannot make room means the entry itself is over budget; store it anyway.
	// The fit check is written so a declared size near the uint64 limit
	// saturates instead of wrapping past the budget.
	var evicted []entry[K, V]
	for size > c.max || c.total > c.max-size {
		old, ok := c.index.popOldest()
		if !ok {
			break
		}
		c.total -= old.size
		if c.onEvict != nil {
			evicted = append(evicted, old)
		}
	}

	c.index.insert(key, entry[K, V]{key: key, handle: h, size: size})
	c.total += size

	c.mu.Unlock()

	// Callbacks run outside the critical section so they can safely call back
	// into the cache and cannot leave it in a corrupt state if they panic.
	for _, old := range evicted {
		c.onEvict(old.key, old.handle, old.size)
	}
}

// Get returns the value stored under key, marking it as the most recently
// used. If key is not directly present, the alias index is consulted and
// resolution retried against the canonical key, following chains of aliases
// up to a bounded hop count.
//
// The second return value reports whether a value was found. A dangling alias
// (one whose canonical entry has been evicted or removed) reports absence.
func (c *Cache[K, V]) Get(key K) (Handle[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	canonical, ok := c.resolveLocked(key)
	if !ok {
		var zero Handle[V]
		return zero, false
	}

	ent, _ := c.index.refresh(canonical)
	return ent.handle, true
}

// Remove deletes the entry under key, reclaims its byte cost, and returns its
// value. Removing an absent key returns false; Remove is idempotent.
//
// Aliases pointing at key are not removed and become dangling until the key
// is stored again or Unalias is called.
func (c *Cache[K, V]) Remove(key K) (Handle[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.index.remove(key)
	if !ok {
		var zero Handle[V]
		return zero, false
	}
	c.total -= old.size
	return old.handle, true
}

// Contains reports whether key resolves to a stored entry, either directly or
// through the alias index. Unlike Get it does not change recency order.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.resolveLocked(key)
	return ok
}

// Size returns the sum of the declared sizes of all indexed entries.
func (c *Cache[K, V]) Size() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Capacity returns the byte budget the cache was created with.
func (c *Cache[K, V]) Capacity() uint64 {
	return c.max
}

// Len returns the number of indexed entries. Aliases are not counted.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.len()
}

// Keys returns the indexed keys in recency order, least recently used first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.keys()
}
