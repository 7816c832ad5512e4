// Package registry is a concurrent name to value store shared across invocations.
package registry

import (
	"slices"

	"github.com/alphadose/haxmap"
)

// Registry maps names to values. It is safe for concurrent use.
type Registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() *Registry[T] {
	return &Registry[T]{values: haxmap.New[string, T]()}
}

func (r *Registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

// Set registers value under name, replacing any previous value.
func (r *Registry[T]) Set(name string, value T) {
	r.values.Set(name, value)
}

// GetOrCompute returns the value registered under name, creating it with
// create when absent. Concurrent callers observe the same value.
// The boolean reports whether the value already existed.
func (r *Registry[T]) GetOrCompute(name string, create func() T) (T, bool) {
	return r.values.GetOrCompute(name, create)
}

func (r *Registry[T]) Del(name string) {
	r.values.Del(name)
}

// Names returns the registered names in lexical order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}
