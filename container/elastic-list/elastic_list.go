// Package elasticlist implements a slice-backed list that transparently
// grows on out-of-range access, materializing intermediate elements with
// their zero value. It behaves like a defaulted map keyed by small
// integers while keeping the cache friendliness of a flat slice.
//
// The list is not safe for concurrent use, callers are expected to hold
// their own locks.
package elasticlist

// List wraps a slice that resizes itself on demand.
type List[T any] struct {
	items []T
}

// New constructs an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// FromSlice constructs a list backed by the given slice. The slice is
// retained, not copied.
func FromSlice[T any](items []T) *List[T] {
	return &List[T]{items: items}
}

// ensure grows the backing slice so that index i is addressable.
func (l *List[T]) ensure(i uint64) {
	for i >= uint64(len(l.items)) {
		var zero T
		l.items = append(l.items, zero)
	}
}

// At returns a pointer to the element at index i, growing the list when
// i is beyond the current length. The pointer is only valid until the
// next growth of the list.
func (l *List[T]) At(i uint64) *T {
	l.ensure(i)
	return &l.items[i]
}

// Get returns a copy of the element at index i, growing the list when
// i is beyond the current length.
func (l *List[T]) Get(i uint64) T {
	l.ensure(i)
	return l.items[i]
}

// Set stores v at index i, growing the list as needed.
func (l *List[T]) Set(i uint64, v T) {
	l.ensure(i)
	l.items[i] = v
}

// Len returns the number of materialized elements.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Slice returns the backing slice. Mutations through the returned slice
// are visible to the list.
func (l *List[T]) Slice() []T {
	return l.items
}

// Copy returns a list backed by a copy of the materialized elements.
func (l *List[T]) Copy() *List[T] {
	items := make([]T, len(l.items))
	copy(items, l.items)
	return &List[T]{items: items}
}
