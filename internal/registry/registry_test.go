package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Set("b", 2)
	r.Set("a", 1)
	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"a", "b"}, r.Names())

	r.Del("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, r.Names())
}

func TestRegistry_GetOrCompute(t *testing.T) {
	r := New[*int]()
	var created atomic.Int32

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.GetOrCompute("shared", func() *int {
				created.Add(1)
				v := 7
				return &v
			})
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Same(t, results[0], got)
	}

	_, existed := r.GetOrCompute("shared", func() *int { return nil })
	assert.True(t, existed)
}
