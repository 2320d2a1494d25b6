package stream

import "sync/atomic"

// Activity counts operations in flight across any number of dispatchers.
// An operation counts from the moment its input is accepted, including time
// spent queued behind a Concat predecessor, until it ends or is superseded.
//
// A nil *Activity counts nothing.
type Activity struct {
	n atomic.Int64
}

func (a *Activity) add(d int) {
	if a != nil && d != 0 {
		a.n.Add(int64(d))
	}
}

// InFlight returns the number of started or queued operations.
func (a *Activity) InFlight() int64 {
	if a == nil {
		return 0
	}
	return a.n.Load()
}

// Idle reports whether no operation is in flight.
func (a *Activity) Idle() bool {
	return a.InFlight() == 0
}
