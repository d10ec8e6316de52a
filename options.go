package multicache

// EvictFunc is called for each entry evicted under byte pressure.
//
// It is not called for entries replaced by a Put under the same key or deleted
// by an explicit Remove; both of those are caller-initiated and the caller
// already holds the result.
type EvictFunc[K comparable, V any] func(key K, value Handle[V], size uint64)

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	onEvict      EvictFunc[K, V]
	capacityHint int
}

// WithOnEvict installs a callback invoked once per entry evicted under byte
// pressure. The callback runs after the cache's critical section has been
// released, so it may safely call back into the cache.
//
// Example:
//
//	c := multicache.New[string, *os.File](budget,
//	    multicache.WithOnEvict(func(key string, h multicache.Handle[*os.File], size uint64) {
//	        h.Value().Close()
//	    }))
func WithOnEvict[K comparable, V any](fn EvictFunc[K, V]) Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.onEvict = fn
	}
}

// WithCapacityHint presizes the cache's key index for an expected number of
// entries, avoiding map growth during warm-up. The hint does not bound the
// cache; only the byte budget does.
func WithCapacityHint[K comparable, V any](hint int) Option[K, V] {
	return func(cfg *config[K, V]) {
		cfg.capacityHint = hint
	}
}
