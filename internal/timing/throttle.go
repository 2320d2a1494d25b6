package timing

import (
	"errors"
	"fmt"
	"time"
)

// ThrottleConfig configures a Throttle.
type ThrottleConfig struct {
	Window   time.Duration
	Leading  bool
	Trailing bool
}

// ErrInvalidConfig is wrapped by configuration errors from this package.
var ErrInvalidConfig = errors.New("invalid rate limiter config")

// Validate rejects non-positive windows and throttles that would never emit.
func (c ThrottleConfig) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: throttle window must be positive, got %s", ErrInvalidConfig, c.Window)
	}
	if !c.Leading && !c.Trailing {
		return fmt.Errorf("%w: throttle needs leading, trailing or both", ErrInvalidConfig)
	}
	return nil
}

func (c ThrottleConfig) String() string {
	edge := "leading"
	switch {
	case c.Leading && c.Trailing:
		edge = "leading+trailing"
	case c.Trailing:
		edge = "trailing"
	}
	return fmt.Sprintf("throttle(%s, %s)", c.Window, edge)
}

// ThrottleState is the observable state of a Throttle.
type ThrottleState int

const (
	Idle ThrottleState = iota
	WindowOpen
	TrailingPending
)

func (s ThrottleState) String() string {
	switch s {
	case Idle:
		return "idle"
	case WindowOpen:
		return "window-open"
	case TrailingPending:
		return "trailing-pending"
	default:
		return fmt.Sprintf("ThrottleState(%d)", int(s))
	}
}

// Throttle emits at most one value per window.
//
// In Idle, an item opens a window and is emitted at once when Leading is
// set; otherwise it becomes the pending trailing item. Inside a window,
// items are dropped unless Trailing is set, in which case the latest one
// replaces the pending item. When the window closes, a pending item is
// emitted and a fresh window opens at that instant. With nothing pending the
// throttle returns to Idle.
type Throttle[T any] struct {
	cfg        ThrottleConfig
	state      ThrottleState
	windowEnd  time.Time
	pending    T
	hasPending bool
}

// NewThrottle returns an idle throttle.
func NewThrottle[T any](cfg ThrottleConfig) (*Throttle[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Throttle[T]{cfg: cfg}, nil
}

// State returns the current state.
func (t *Throttle[T]) State() ThrottleState { return t.state }

// Push implements Limiter.
func (t *Throttle[T]) Push(now time.Time, v T) (T, bool) {
	var zero T
	if t.state == Idle {
		t.state = WindowOpen
		t.windowEnd = now.Add(t.cfg.Window)
		if t.cfg.Leading {
			return v, true
		}
		t.setPending(v)
		return zero, false
	}
	if t.cfg.Trailing {
		t.setPending(v)
	}
	return zero, false
}

// Deadline implements Limiter.
func (t *Throttle[T]) Deadline() (time.Time, bool) {
	if t.state == Idle {
		return time.Time{}, false
	}
	return t.windowEnd, true
}

// Expire implements Limiter.
func (t *Throttle[T]) Expire() (T, bool) {
	var zero T
	if t.state == Idle {
		return zero, false
	}
	if !t.hasPending {
		t.state = Idle
		return zero, false
	}
	v := t.pending
	t.pending, t.hasPending = zero, false
	t.state = WindowOpen
	t.windowEnd = t.windowEnd.Add(t.cfg.Window)
	return v, true
}

// Flush implements Limiter. A pending trailing item holds completion back
// until its window closes.
func (t *Throttle[T]) Flush(now time.Time) (time.Time, T, bool) {
	var zero T
	if t.hasPending {
		v := t.pending
		at := t.windowEnd
		t.pending, t.hasPending = zero, false
		t.state = Idle
		return at, v, true
	}
	t.state = Idle
	return now, zero, false
}

func (t *Throttle[T]) setPending(v T) {
	t.pending, t.hasPending = v, true
	t.state = TrailingPending
}
