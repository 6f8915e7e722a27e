// Package sparse provides a fixed-capacity, index-addressed container with
// O(1) random access and allocation-free in-order enumeration.
package sparse

import "fmt"

// ErrOutOfRange is returned when an index is outside the store's capacity.
// The store never grows; capacity is fixed at construction.
type ErrOutOfRange struct {
	Index    uint16
	Capacity int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("sparse: index %d out of range (capacity %d)", e.Index, e.Capacity)
}

// Store maps entity indices to values of type T.
//
// Storage is a flat value slice plus a presence slice, sized once at
// construction. Set, Get, Remove, and Contains are O(1); enumeration walks
// indices in ascending order and skips absent slots without allocating.
type Store[T any] struct {
	values  []T
	present []bool
	count   int
}

// New creates a store with the given fixed capacity.
// Valid indices are [0, capacity).
func New[T any](capacity int) *Store[T] {
	return &Store[T]{
		values:  make([]T, capacity),
		present: make([]bool, capacity),
	}
}

// Capacity returns the fixed capacity set at construction.
func (s *Store[T]) Capacity() int {
	return len(s.values)
}

// Len returns the number of present entries.
func (s *Store[T]) Len() int {
	return s.count
}

// Set stores a value at the given index, overwriting any existing value.
func (s *Store[T]) Set(index uint16, value T) error {
	if int(index) >= len(s.values) {
		return &ErrOutOfRange{Index: index, Capacity: len(s.values)}
	}
	if !s.present[index] {
		s.present[index] = true
		s.count++
	}
	s.values[index] = value
	return nil
}

// Get returns the value at index and whether it is present.
// An out-of-range index reports absent.
func (s *Store[T]) Get(index uint16) (T, bool) {
	if int(index) >= len(s.values) || !s.present[index] {
		var zero T
		return zero, false
	}
	return s.values[index], true
}

// Contains reports whether a value is present at index.
func (s *Store[T]) Contains(index uint16) bool {
	return int(index) < len(s.present) && s.present[index]
}

// Remove deletes the value at index. Returns true if a value was present.
// The slot is zeroed so pointer-bearing values do not pin garbage.
func (s *Store[T]) Remove(index uint16) bool {
	if int(index) >= len(s.values) || !s.present[index] {
		return false
	}
	var zero T
	s.values[index] = zero
	s.present[index] = false
	s.count--
	return true
}

// Each calls fn for every present (index, value) pair in ascending index
// order. Iteration stops early if fn returns false.
//
// Each does not allocate. Mutating the store during iteration is the
// caller's responsibility; removals at or after the current index are safe.
func (s *Store[T]) Each(fn func(index uint16, value T) bool) {
	for i := range s.values {
		if s.present[i] {
			if !fn(uint16(i), s.values[i]) {
				return
			}
		}
	}
}

// Clear removes all entries, zeroing every present slot.
func (s *Store[T]) Clear() {
	var zero T
	for i := range s.values {
		if s.present[i] {
			s.values[i] = zero
			s.present[i] = false
		}
	}
	s.count = 0
}
