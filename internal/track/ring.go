// Package track holds the per-frame tracking state of the viewer: the smoothed
// receiver position, the movement-gated history log and the raw-position trail.
//
// None of these types are synchronized. They are owned by the UI update loop.
package track

// Ring is a fixed-capacity circular buffer. Pushing past capacity overwrites the
// oldest value.
type Ring[T any] struct {
	buf   []T
	pos   int
	count int
}

// NewRing creates a new circular buffer with the given capacity (minimum 1).
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf: make([]T, capacity),
	}
}

// Push adds a value to the ring buffer.
func (r *Ring[T]) Push(val T) {
	r.buf[r.pos] = val
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *Ring[T]) Values() []T {
	if r.count == 0 {
		return nil
	}
	result := make([]T, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		start := r.pos
		n := copy(result, r.buf[start:])
		copy(result[n:], r.buf[:start])
	}
	return result
}

// Newest returns all stored values, most recent first.
func (r *Ring[T]) Newest() []T {
	vals := r.Values()
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return vals
}

// Last returns the most recent value and whether there was one.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	idx := (r.pos - 1 + len(r.buf)) % len(r.buf)
	return r.buf[idx], true
}

// Len returns the number of stored values.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Clear drops every stored value.
func (r *Ring[T]) Clear() {
	clear(r.buf)
	r.pos = 0
	r.count = 0
}
