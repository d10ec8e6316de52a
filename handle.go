package multicache

// Handle is an immutable shared reference to a cached value.
//
// Handles are cheap to copy (a single pointer) and comparable: two handles are
// equal exactly when they reference the same stored value. A handle obtained
// from Get or Remove stays valid after the entry is evicted from the cache;
// eviction only removes the index's ownership stake, it never invalidates
// handles already handed out.
//
// The zero Handle references nothing; Valid reports false and Value returns
// the zero value of V.
type Handle[V any] struct {
	ref *V
}

// NewHandle wraps a value in a shared handle.
//
// Use NewHandle together with Cache.PutHandle when the same value should be
// stored under multiple keys, or shared with code outside the cache, without
// duplicating it.
func NewHandle[V any](value V) Handle[V] {
	return Handle[V]{ref: &value}
}

// Value returns the referenced value.
func (h Handle[V]) Value() V {
	if h.ref == nil {
		var zero V
		return zero
	}
	return *h.ref
}

// Valid reports whether the handle references a value.
func (h Handle[V]) Valid() bool {
	return h.ref != nil
}
