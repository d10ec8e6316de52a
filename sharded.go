package multicache

import (
	"hash/maphash"
	"sync"

	"github.com/jmgilman/go/errors"
)

// Sharded partitions the keyspace across independently locked Cache shards,
// trading the single global byte budget for reduced lock contention. Each
// shard receives an equal fraction of the budget and evicts independently, so
// eviction order is only LRU per shard, not across the whole cache.
//
// Aliases are kept at the sharded level so a chain may cross shards. The
// alias map is guarded by its own lock, always acquired before any shard
// lock and never the other way around.
type Sharded[K comparable, V any] struct {
	shards []*Cache[K, V]
	seed   maphash.Seed

	mu      sync.RWMutex
	aliases map[K]K
}

// NewSharded creates a sharded cache with the given total byte budget spread
// evenly across shards (any remainder goes to the first shard).
//
// The shard count is fixed for the lifetime of the cache and must be at least
// one; otherwise an INVALID_CONFIGURATION error is returned.
//
// Example:
//
//	s, err := multicache.NewSharded[string, []byte](1<<30, 16)
func NewSharded[K comparable, V any](maxBytes uint64, shards int, opts ...Option[K, V]) (*Sharded[K, V], error) {
	if shards < 1 {
		return nil, errors.Newf(errors.CodeInvalidConfig, "shard count must be at least 1, got %d", shards)
	}

	per := maxBytes / uint64(shards)
	rem := maxBytes % uint64(shards)

	s := &Sharded[K, V]{
		shards:  make([]*Cache[K, V], shards),
		seed:    maphash.MakeSeed(),
		aliases: make(map[K]K),
	}
	for i := range s.shards {
		budget := per
		if i == 0 {
			budget += rem
		}
		s.shards[i] = New[K, V](budget, opts...)
	}
	return s, nil
}

// shard returns the cache partition owning key.
func (s *Sharded[K, V]) shard(key K) *Cache[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)%uint64(len(s.shards))]
}

// Put stores value under key in the shard owning key. Eviction applies within
// that shard's budget fraction only.
func (s *Sharded[K, V]) Put(key K, value V, size uint64) {
	s.shard(key).Put(key, value, size)
}

// PutHandle is Put for a value already wrapped in a shared handle.
func (s *Sharded[K, V]) PutHandle(key K, h Handle[V], size uint64) {
	s.shard(key).PutHandle(key, h, size)
}

// Get returns the value stored under key, consulting the sharded alias index
// on a direct miss. Alias chains are chased with the same bounded, cycle-safe
// loop Cache uses, re-routing to the owning shard at each hop.
func (s *Sharded[K, V]) Get(key K) (Handle[V], bool) {
	if h, ok := s.shard(key).Get(key); ok {
		return h, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero Handle[V]
	k := key
	for hop := 0; hop < len(s.aliases); hop++ {
		next, ok := s.aliases[k]
		if !ok {
			return zero, false
		}
		k = next
		if h, ok := s.shard(k).Get(k); ok {
			return h, true
		}
	}
	return zero, false
}

// Remove deletes the entry under key from its owning shard, returning its
// value. Aliases pointing at key are kept.
func (s *Sharded[K, V]) Remove(key K) (Handle[V], bool) {
	return s.shard(key).Remove(key)
}

// Contains reports whether key resolves to a stored entry, directly or
// through the alias index, without changing recency order.
func (s *Sharded[K, V]) Contains(key K) bool {
	if s.shard(key).Contains(key) {
		return true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	k := key
	for hop := 0; hop < len(s.aliases); hop++ {
		next, ok := s.aliases[k]
		if !ok {
			return false
		}
		k = next
		if s.shard(k).Contains(k) {
			return true
		}
	}
	return false
}

// Alias registers alias as a second key resolving to canonical's entry. The
// registration is held at the sharded level, so the two keys may live in
// different shards. No-op when the keys are equal.
func (s *Sharded[K, V]) Alias(canonical, alias K) {
	if canonical == alias {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias] = canonical
}

// Unalias removes a previously registered alias and reports whether it was
// present.
func (s *Sharded[K, V]) Unalias(alias K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.aliases[alias]
	delete(s.aliases, alias)
	return ok
}

// Size returns the sum of the declared sizes held across all shards.
func (s *Sharded[K, V]) Size() uint64 {
	var total uint64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}

// Capacity returns the total byte budget across all shards.
func (s *Sharded[K, V]) Capacity() uint64 {
	var total uint64
	for _, shard := range s.shards {
		total += shard.Capacity()
	}
	return total
}

// Len returns the number of indexed entries across all shards.
func (s *Sharded[K, V]) Len() int {
	n := 0
	for _, shard := range s.shards {
		n += shard.Len()
	}
	return n
}

// Shards returns the number of partitions.
func (s *Sharded[K, V]) Shards() int {
	return len(s.shards)
}
