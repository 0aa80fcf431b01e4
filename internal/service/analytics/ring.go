package analytics

// ring is a bounded append-only buffer that evicts oldest entries first.
type ring[T any] struct {
	buf []T
	max int
}

func newRing[T any](max int) *ring[T] {
	return &ring[T]{max: max}
}

func (r *ring[T]) push(v T) {
	r.buf = append(r.buf, v)
	if len(r.buf) > r.max {
		// Copy down instead of reslicing so the backing array cannot grow
		// without bound across many evictions.
		copy(r.buf, r.buf[len(r.buf)-r.max:])
		r.buf = r.buf[:r.max]
	}
}

func (r *ring[T]) len() int {
	return len(r.buf)
}

func (r *ring[T]) items() []T {
	return r.buf
}
