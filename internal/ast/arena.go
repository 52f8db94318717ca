package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// Arena is append-only storage addressed by stable 1-based indices. Nodes
// reference each other through indices, never through embedded pointers, so
// rewriting one subtree cannot invalidate a reference into another.
type Arena[T any] struct {
	data []T
}

// NewArena returns an arena whose backing slice is preallocated to capHint.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate appends value and returns its 1-based index.
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	idx, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	return idx
}

// Get returns the element at index, or nil for the 0 sentinel.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || int(index) > len(a.data) {
		return nil
	}
	return &a.data[index-1]
}

// Len returns the number of allocated elements.
func (a *Arena[T]) Len() uint32 {
	return uint32(len(a.data))
}
