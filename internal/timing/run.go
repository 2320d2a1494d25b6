package timing

import (
	"context"
	"time"

	"github.com/roach88/epicflow/internal/clock"
)

// Run drives l from in using clk and returns the rate-limited output.
//
// The output closes after in closes and any held item has been released, or
// when ctx ends. Timers are armed before a value is sent so that a fake
// clock observes them as soon as the value is received.
func Run[T any](ctx context.Context, clk clock.Clock, l Limiter[T], in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		var (
			timer  clock.Timer
			timerC <-chan time.Time
			armed  time.Time
		)
		disarm := func() {
			if timer != nil {
				timer.Stop()
			}
			timer, timerC, armed = nil, nil, time.Time{}
		}
		defer disarm()
		arm := func() {
			d, ok := l.Deadline()
			if !ok {
				disarm()
				return
			}
			if timer != nil && d.Equal(armed) {
				return
			}
			disarm()
			timer = clk.NewTimer(d.Sub(clk.Now()))
			timerC, armed = timer.C(), d
		}
		send := func(v T) bool {
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}
		var queued []T
		collect := func(_ time.Time, v T) { queued = append(queued, v) }
		flush := func() bool {
			for _, v := range queued {
				if !send(v) {
					return false
				}
			}
			queued = queued[:0]
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return

			case v, ok := <-in:
				now := clk.Now()
				catchUp(l, now, collect)
				if !ok {
					disarm()
					at, fv, has := l.Flush(now)
					if !flush() {
						return
					}
					if has {
						if !clock.Sleep(clk, at.Sub(now), ctx.Done()) {
							return
						}
						send(fv)
					}
					return
				}
				if r, emit := l.Push(now, v); emit {
					collect(now, r)
				}
				arm()
				if !flush() {
					return
				}

			case <-timerC:
				timer, timerC = nil, nil
				if r, emit := l.Expire(); emit {
					collect(armed, r)
				}
				arm()
				if !flush() {
					return
				}
			}
		}
	}()
	return out
}

// ThrottleChan is Run with a fresh Throttle.
func ThrottleChan[T any](ctx context.Context, clk clock.Clock, cfg ThrottleConfig, in <-chan T) (<-chan T, error) {
	t, err := NewThrottle[T](cfg)
	if err != nil {
		return nil, err
	}
	return Run[T](ctx, clk, t, in), nil
}

// DebounceChan is Run with a fresh Debounce.
func DebounceChan[T any](ctx context.Context, clk clock.Clock, window time.Duration, in <-chan T) (<-chan T, error) {
	d, err := NewDebounce[T](window)
	if err != nil {
		return nil, err
	}
	return Run[T](ctx, clk, d, in), nil
}
