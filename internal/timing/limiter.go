package timing

import "time"

// Limiter is the contract shared by Throttle and Debounce.
type Limiter[T any] interface {
	// Push offers v at now and returns a value to emit immediately, if any.
	// now must not be after a pending Deadline; drive Expire first.
	Push(now time.Time, v T) (T, bool)
	// Deadline reports when the machine next needs Expire.
	Deadline() (time.Time, bool)
	// Expire processes the deadline reported by Deadline and returns a value
	// to emit at that instant, if any.
	Expire() (T, bool)
	// Flush is called once when the input completes at now. It returns the
	// instant the stream may complete and a value to emit just before.
	Flush(now time.Time) (at time.Time, v T, ok bool)
}

// catchUp expires every deadline strictly before now, calling emit for each
// value released along the way.
func catchUp[T any](l Limiter[T], now time.Time, emit func(time.Time, T)) {
	for {
		d, ok := l.Deadline()
		if !ok || !d.Before(now) {
			return
		}
		if v, ok := l.Expire(); ok {
			emit(d, v)
		}
	}
}
