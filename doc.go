// Package multicache provides a concurrency-safe in-memory cache bounded by a
// byte budget instead of an entry count.
//
// The cache evicts least-recently-used entries to stay within its budget. Each
// entry is stored with a caller-declared size in bytes; the cache never inspects
// values to compute sizes itself. Values are returned as shared handles that
// remain valid after the underlying entry has been evicted, so callers can hold
// and read a value for as long as they need regardless of cache pressure.
//
// # Overview
//
// The cache composes four pieces behind one facade:
//
//  1. A recency-ordered index: key → entry mapping that tracks access order
//  2. A size accountant: total bytes held vs. the fixed byte budget
//  3. An alias index: secondary keys that resolve to a canonical key's entry
//  4. Shared value handles: immutable, cheaply copyable references to values
//
// Every public operation acquires one lock over the composite state, performs
// its work atomically, and releases it. Operations are linearizable: an external
// observer can always order calls into a single total sequence.
//
// # Usage
//
// Create a cache with a byte budget and store values with declared sizes:
//
//	c := multicache.New[string, []byte](64 * 1024 * 1024)
//
//	c.Put("blob:a", dataA, uint64(len(dataA)))
//	c.Put("blob:b", dataB, uint64(len(dataB)))
//
//	if h, ok := c.Get("blob:a"); ok {
//	    process(h.Value())
//	}
//
// Register an alias so a second key resolves to the same entry:
//
//	c.Alias("blob:a", "latest")
//	h, ok := c.Get("latest") // resolves through the alias to "blob:a"
//
// Coalesce concurrent loads of a missing key:
//
//	h, err := c.GetOrLoad("blob:c", func(key string) ([]byte, uint64, error) {
//	    data, err := fetch(key)
//	    return data, uint64(len(data)), err
//	})
//
// # Eviction
//
// Put first reclaims any existing entry under the same key, then evicts oldest
// entries until the new entry fits, then inserts. A single entry whose declared
// size alone exceeds the budget is still stored (as the cache's only occupant)
// rather than rejected; the next Put under pressure evicts it.
//
// Aliases occupy no budget and are never evicted. An alias can outlive its
// canonical entry; resolving through a gone canonical key reports absence.
//
// # Concurrency
//
// All methods are safe for concurrent use. The cache performs no internal
// parallelism and spawns no goroutines. Alias chains are resolved iteratively
// inside a single critical section with a bounded hop count, so alias cycles
// resolve as absent instead of looping forever. Eviction callbacks run after
// the critical section is released.
//
// For high-contention workloads, Sharded partitions the keyspace across
// independently locked shards, each holding a fraction of the byte budget.
package multicache
