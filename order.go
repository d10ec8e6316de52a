package multicache

import "container/list"

// entry is the unit of storage owned by the recency index. The key is kept
// alongside the value because eviction starts from list nodes.
type entry[K comparable, V any] struct {
	key    K
	handle Handle[V]
	size   uint64
}

// recencyIndex is a key → entry mapping that also maintains access order.
// The list front is the least recently used entry, the back the most recent.
// All operations are amortized O(1). The index is not safe for concurrent
// use; Cache guards it with the facade lock.
type recencyIndex[K comparable, V any] struct {
	ll    *list.List
	items map[K]*list.Element
}

func newRecencyIndex[K comparable, V any](hint int) *recencyIndex[K, V] {
	ix := &recencyIndex[K, V]{
		ll: list.New(),
	}
	if hint > 0 {
		ix.items = make(map[K]*list.Element, hint)
	} else {
		ix.items = make(map[K]*list.Element)
	}
	return ix
}

// insert stores ent at the most-recent position, displacing any previous
// order position held by the same key.
func (ix *recencyIndex[K, V]) insert(key K, ent entry[K, V]) {
	if el, ok := ix.items[key]; ok {
		el.Value = ent
		ix.ll.MoveToBack(el)
		return
	}
	ix.items[key] = ix.ll.PushBack(ent)
}

// refresh returns the entry for key, moving it to the most-recent position.
func (ix *recencyIndex[K, V]) refresh(key K) (entry[K, V], bool) {
	el, ok := ix.items[key]
	if !ok {
		var zero entry[K, V]
		return zero, false
	}
	ix.ll.MoveToBack(el)
	return el.Value.(entry[K, V]), true
}

// peek returns the entry for key without changing its order position.
func (ix *recencyIndex[K, V]) peek(key K) (entry[K, V], bool) {
	el, ok := ix.items[key]
	if !ok {
		var zero entry[K, V]
		return zero, false
	}
	return el.Value.(entry[K, V]), true
}

func (ix *recencyIndex[K, V]) contains(key K) bool {
	_, ok := ix.items[key]
	return ok
}

// remove deletes the entry for key regardless of its order position.
func (ix *recencyIndex[K, V]) remove(key K) (entry[K, V], bool) {
	el, ok := ix.items[key]
	if !ok {
		var zero entry[K, V]
		return zero, false
	}
	delete(ix.items, key)
	ix.ll.Remove(el)
	return el.Value.(entry[K, V]), true
}

// popOldest removes and returns the least-recently-used entry.
func (ix *recencyIndex[K, V]) popOldest() (entry[K, V], bool) {
	el := ix.ll.Front()
	if el == nil {
		var zero entry[K, V]
		return zero, false
	}
	ent := el.Value.(entry[K, V])
	delete(ix.items, ent.key)
	ix.ll.Remove(el)
	return ent, true
}

func (ix *recencyIndex[K, V]) len() int {
	return len(ix.items)
}

// keys returns all keys in order, oldest first.
func (ix *recencyIndex[K, V]) keys() []K {
	out := make([]K, 0, ix.ll.Len())
	for el := ix.ll.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(entry[K, V]).key)
	}
	return out
}
