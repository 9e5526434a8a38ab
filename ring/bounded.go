package ring

// Bounded is a fixed-capacity vector used for BoundedList<T, N> from the
// wire schema (AddrList legacy payload, an Interface's bound-socket table).
// Append silently drops the newest element once Cap is reached.
type Bounded[T any] struct {
	items []T
	cap   int
}

// NewBounded returns a Bounded list with room for capacity items.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bounded[T]{items: make([]T, 0, capacity), cap: capacity}
}

// Len returns the number of items currently held.
func (b *Bounded[T]) Len() int { return len(b.items) }

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int { return b.cap }

// Append adds v if there is room, returning false if the list is full and
// v was discarded.
func (b *Bounded[T]) Append(v T) bool {
	if len(b.items) >= b.cap {
		return false
	}
	b.items = append(b.items, v)
	return true
}

// Remove deletes the first item for which match returns true. It reports
// whether an item was removed.
func (b *Bounded[T]) Remove(match func(T) bool) bool {
	for i, it := range b.items {
		if match(it) {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Each calls fn for every item in order.
func (b *Bounded[T]) Each(fn func(T)) {
	for _, it := range b.items {
		fn(it)
	}
}

// Find returns the first item for which match returns true.
func (b *Bounded[T]) Find(match func(T) bool) (T, bool) {
	for _, it := range b.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of the underlying slice.
func (b *Bounded[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}
