package multicache

import (
	"sync"

	"github.com/jmgilman/go/errors"
)

// LoaderFunc produces the value and declared size for a key that is not in
// the cache. Returning an error aborts the load; nothing is stored.
type LoaderFunc[K comparable, V any] func(key K) (V, uint64, error)

// GetOrLoad returns the value for key, loading and storing it on a miss.
//
// Concurrent calls for the same key are coalesced: one caller runs the loader
// while the others wait for its result. Loader errors are returned to every
// waiting caller unchanged and are not cached, so a later call retries.
//
// The loader runs outside the cache's critical section; other keys remain
// fully available while a load is in flight.
//
// Example:
//
//	h, err := c.GetOrLoad("blob:a", func(key string) ([]byte, uint64, error) {
//	    data, err := fetch(key)
//	    return data, uint64(len(data)), err
//	})
func (c *Cache[K, V]) GetOrLoad(key K, load LoaderFunc[K, V]) (Handle[V], error) {
	var zero Handle[V]
	if load == nil {
		return zero, errors.New(errors.CodeInvalidInput, "loader must not be nil")
	}

	if h, ok := c.Get(key); ok {
		return h, nil
	}

	return c.flight.do(key, func() (Handle[V], error) {
		// Re-check after winning the flight: another caller may have stored
		// the value between our miss and the loader starting.
		if h, ok := c.Get(key); ok {
			return h, nil
		}

		value, size, err := load(key)
		if err != nil {
			return zero, err
		}

		h := NewHandle(value)
		c.PutHandle(key, h, size)
		return h, nil
	})
}

// flightCall is one in-flight load shared by every caller waiting on its key.
type flightCall[V any] struct {
	wg  sync.WaitGroup
	val Handle[V]
	err error
}

// callGroup deduplicates concurrent function calls by key. The zero value is
// ready to use.
type callGroup[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*flightCall[V]
}

func (g *callGroup[K, V]) do(key K, fn func() (Handle[V], error)) (Handle[V], error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*flightCall[V])
	}
	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		call.wg.Wait()
		return call.val, call.err
	}

	call := new(flightCall[V])
	call.wg.Add(1)
	g.calls[key] = call
	g.mu.Unlock()

	// A panicking fn must still release its waiters and forget the call;
	// otherwise every later call for this key would block forever on a wedged
	// flight. Waiters receive an error, and the panic continues on the
	// goroutine that ran fn.
	defer func() {
		r := recover()
		if r != nil {
			call.err = errors.Newf(errors.CodeInternal, "load panicked: %v", r)
		}
		call.wg.Done()

		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()

		if r != nil {
			panic(r)
		}
	}()

	call.val, call.err = fn()
	return call.val, call.err
}
