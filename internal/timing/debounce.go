package timing

import (
	"fmt"
	"time"
)

// Debounce emits an item only after Window has passed without a newer one.
type Debounce[T any] struct {
	window     time.Duration
	deadline   time.Time
	pending    T
	hasPending bool
}

// NewDebounce returns an empty debouncer.
func NewDebounce[T any](window time.Duration) (*Debounce[T], error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: debounce window must be positive, got %s", ErrInvalidConfig, window)
	}
	return &Debounce[T]{window: window}, nil
}

// Push implements Limiter. It never emits immediately.
func (d *Debounce[T]) Push(now time.Time, v T) (T, bool) {
	var zero T
	d.pending, d.hasPending = v, true
	d.deadline = now.Add(d.window)
	return zero, false
}

// Deadline implements Limiter.
func (d *Debounce[T]) Deadline() (time.Time, bool) {
	return d.deadline, d.hasPending
}

// Expire implements Limiter.
func (d *Debounce[T]) Expire() (T, bool) {
	var zero T
	if !d.hasPending {
		return zero, false
	}
	v := d.pending
	d.pending, d.hasPending = zero, false
	return v, true
}

// Flush implements Limiter. The pending item is released at completion.
func (d *Debounce[T]) Flush(now time.Time) (time.Time, T, bool) {
	v, ok := d.Expire()
	return now, v, ok
}
