package multicache

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCachePut_EvictsUnderPressure(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)
	c.Put(2, 2, 100)

	h, ok := c.Get(2)
	require.True(t, ok)
	require.Equal(t, 2, h.Value())

	h, ok = c.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, h.Value())

	_, ok = c.Get(0)
	require.False(t, ok)
}

func TestCacheGet_RefreshChangesEvictionOrder(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)
	c.Get(0)
	c.Put(2, 2, 100)

	h, ok := c.Get(0)
	require.True(t, ok)
	require.Equal(t, 0, h.Value())

	_, ok = c.Get(1)
	require.False(t, ok)

	h, ok = c.Get(2)
	require.True(t, ok)
	require.Equal(t, 2, h.Value())
}

func TestCachePut_ReplaceResetsRecencyAndAccounting(t *testing.T) {
	c := New[int, string](200)

	c.Put(1, "a", 100)
	c.Put(1, "b", 100)
	c.Put(1, "c", 100)

	h, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "c", h.Value())
	require.Equal(t, uint64(100), c.Size())
	require.Equal(t, 1, c.Len())
}

func TestCachePut_RepeatedReplaceDoesNotEvictOthers(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)
	c.Put(1, 2, 100)
	c.Put(1, 3, 100)

	h, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, 3, h.Value())

	h, ok = c.Get(0)
	require.True(t, ok, "replacing key 1 reclaims its space first, so key 0 survives")
	require.Equal(t, 0, h.Value())
}

func TestCachePut_ReplaceWithLargerSizeEvictsOthers(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)
	c.Put(1, 11, 150)

	_, ok := c.Get(0)
	require.False(t, ok)

	h, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, 11, h.Value())
	require.Equal(t, uint64(150), c.Size())
}

func TestCacheRemove_Idempotent(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)

	h, ok := c.Remove(0)
	require.True(t, ok)
	require.Equal(t, 0, h.Value())
	require.Equal(t, uint64(0), c.Size())

	_, ok = c.Remove(0)
	require.False(t, ok)

	_, ok = c.Get(0)
	require.False(t, ok)
}

func TestCachePut_OversizedSingleton(t *testing.T) {
	c := New[int, int](50)

	c.Put(0, 0, 100)

	h, ok := c.Get(0)
	require.True(t, ok)
	require.Equal(t, 0, h.Value())
	require.Greater(t, c.Size(), c.Capacity())
	require.Equal(t, 1, c.Len())

	// The oversized occupant already exceeds the budget, so the next insert
	// evicts it.
	c.Put(1, 1, 10)

	_, ok = c.Get(0)
	require.False(t, ok)

	h, ok = c.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, h.Value())
	require.Equal(t, uint64(10), c.Size())
}

func TestCachePut_HugeDeclaredSizeDoesNotWrapAccounting(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, math.MaxUint64)

	// The sum of the resident size and the huge declared size would wrap
	// uint64; the fit check must still see the entry as over budget and evict
	// down to an oversized singleton.
	require.Equal(t, 1, c.Len())
	require.False(t, c.Contains(0))
	require.Equal(t, uint64(math.MaxUint64), c.Size())

	h, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, 1, h.Value())

	c.Put(2, 2, 10)
	require.False(t, c.Contains(1))
	require.Equal(t, uint64(10), c.Size())
}

func TestCachePut_ZeroBudget(t *testing.T) {
	c := New[int, int](0)

	c.Put(0, 0, 10)

	h, ok := c.Get(0)
	require.True(t, ok)
	require.Equal(t, 0, h.Value())

	// Every put degenerates to store-then-evict-on-next-put.
	c.Put(1, 1, 10)

	_, ok = c.Get(0)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
}

func TestCacheContains(t *testing.T) {
	c := New[int, int](100)

	c.Put(0, 0, 100)
	require.True(t, c.Contains(0))
	require.False(t, c.Contains(2))

	c.Put(2, 2, 100)
	require.False(t, c.Contains(0))
	require.True(t, c.Contains(2))
}

func TestCacheContains_DoesNotRefresh(t *testing.T) {
	c := New[int, int](200)

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)

	// Contains must not bump key 0, so it is still the eviction victim.
	require.True(t, c.Contains(0))
	c.Put(2, 2, 100)

	_, ok := c.Get(0)
	require.False(t, ok)
	require.True(t, c.Contains(1))
}

func TestCachePutHandle_SharesOneValue(t *testing.T) {
	c := New[string, string](200)

	h := NewHandle("payload")
	c.PutHandle("a", h, 10)
	c.PutHandle("b", h, 10)

	ha, ok := c.Get("a")
	require.True(t, ok)
	hb, ok := c.Get("b")
	require.True(t, ok)

	require.True(t, ha == h, "handle under key a should be the one stored")
	require.True(t, ha == hb, "both keys should share one handle")
	require.Equal(t, uint64(20), c.Size(), "shared value is accounted once per key")
}

func TestCacheGet_HandleOutlivesEviction(t *testing.T) {
	c := New[int, string](100)

	c.Put(0, "kept", 100)
	h, ok := c.Get(0)
	require.True(t, ok)

	// Evict key 0 and overwrite the slot.
	c.Put(1, "other", 100)
	_, ok = c.Get(0)
	require.False(t, ok)

	require.True(t, h.Valid())
	require.Equal(t, "kept", h.Value())
}

func TestCacheKeys_RecencyOrder(t *testing.T) {
	c := New[int, int](1000)

	c.Put(0, 0, 10)
	c.Put(1, 1, 10)
	c.Put(2, 2, 10)
	require.Equal(t, []int{0, 1, 2}, c.Keys())

	c.Get(0)
	require.Equal(t, []int{1, 2, 0}, c.Keys())

	c.Remove(2)
	require.Equal(t, []int{1, 0}, c.Keys())
}

func TestCacheOnEvict(t *testing.T) {
	type eviction struct {
		key  int
		size uint64
	}

	var evicted []eviction
	c := New[int, int](200, WithOnEvict[int, int](func(key int, h Handle[int], size uint64) {
		evicted = append(evicted, eviction{key: key, size: size})
	}))

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)
	require.Empty(t, evicted)

	c.Put(2, 2, 100)
	require.Equal(t, []eviction{{key: 0, size: 100}}, evicted)

	// Replacement and explicit removal are caller-initiated, not pressure.
	c.Put(1, 11, 100)
	c.Remove(1)
	require.Len(t, evicted, 1)
}

func TestCacheOnEvict_MayCallBackIntoCache(t *testing.T) {
	var c *Cache[int, int]
	c = New[int, int](100, WithOnEvict[int, int](func(key int, h Handle[int], size uint64) {
		// Re-entrant use must not deadlock: callbacks run outside the lock.
		c.Contains(key)
	}))

	c.Put(0, 0, 100)
	c.Put(1, 1, 100)

	require.False(t, c.Contains(0))
	require.True(t, c.Contains(1))
}

// TestCacheSizeInvariant_Randomized drives the cache through a random op
// sequence and checks after every step that the reported size equals the sum
// of the declared sizes of the currently indexed keys, and that the budget is
// respected except for an oversized singleton.
func TestCacheSizeInvariant_Randomized(t *testing.T) {
	const (
		budget  = 512
		keys    = 32
		steps   = 10000
		maxSize = 128
	)

	rng := rand.New(rand.NewSource(1))
	c := New[int, int](budget)
	declared := make(map[int]uint64)

	for step := 0; step < steps; step++ {
		key := rng.Intn(keys)
		switch rng.Intn(5) {
		case 0, 1:
			size := uint64(rng.Intn(maxSize) + 1)
			c.Put(key, step, size)
			declared[key] = size
		case 2:
			c.Get(key)
		case 3:
			c.Remove(key)
		case 4:
			c.Alias(key, rng.Intn(keys))
		}

		var want uint64
		for _, k := range c.Keys() {
			want += declared[k]
		}
		require.Equal(t, want, c.Size(), "step %d: size accounting drifted", step)

		if c.Size() > budget {
			require.Equal(t, 1, c.Len(), "step %d: over budget without being an oversized singleton", step)
		}
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	const (
		workers = 8
		steps   = 2000
		budget  = 1024
	)

	c := New[int, int](budget)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(w)))
			for i := 0; i < steps; i++ {
				key := rng.Intn(64)
				switch rng.Intn(6) {
				case 0, 1:
					c.Put(key, i, uint64(rng.Intn(64)+1))
				case 2:
					c.Get(key)
				case 3:
					c.Remove(key)
				case 4:
					c.Contains(key)
				case 5:
					c.Alias(key, rng.Intn(64))
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// The exact contents depend on interleaving; the invariants must not.
	if c.Size() > budget {
		require.Equal(t, 1, c.Len())
	}
	require.Len(t, c.Keys(), c.Len())
}

func TestCacheConcurrentReaders(t *testing.T) {
	c := New[int, int](1000)
	c.Put(1, 42, 10)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				h, ok := c.Get(1)
				if ok && h.Value() != 42 {
					t.Error("read wrong value")
					return
				}
			}
		}()
	}
	wg.Wait()
}
