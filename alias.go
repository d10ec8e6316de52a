package multicache

// Alias registers alias as a second key resolving to canonical's entry.
//
// Registering an alias is a no-op when the two keys are equal. The canonical
// key is not validated: an alias may be registered before its canonical entry
// is stored, and it survives the entry's eviction or removal (a dangling
// alias, which resolves to absence until the canonical key is stored again).
//
// Aliases occupy no byte budget and are never evicted. They accumulate until
// removed with Unalias, so callers registering unbounded alias sets should
// remove them when done.
//
// Example:
//
//	c.Put("sha256:9f86d0", blob, uint64(len(blob)))
//	c.Alias("sha256:9f86d0", "latest")
func (c *Cache[K, V]) Alias(canonical, alias K) {
	if canonical == alias {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = canonical
}

// Unalias removes a previously registered alias and reports whether it was
// present. The canonical entry, if any, is untouched.
func (c *Cache[K, V]) Unalias(alias K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.aliases[alias]
	delete(c.aliases, alias)
	return ok
}

// resolveLocked follows the alias chain starting at key and returns the first
// key holding a stored entry. The chase is a loop bounded by the current size
// of the alias map: a chain can never be longer without containing a cycle,
// so exceeding the bound resolves as absent instead of looping forever.
//
// Callers must hold c.mu (read or write).
func (c *Cache[K, V]) resolveLocked(key K) (K, bool) {
	k := key
	for hop := 0; hop <= len(c.aliases); hop++ {
		if c.index.contains(k) {
			return k, true
		}
		next, ok := c.aliases[k]
		if !ok {
			return k, false
		}
		k = next
	}
	// Hop budget exhausted: the chain contains a cycle. Fail closed.
	return key, false
}
