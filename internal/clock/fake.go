package clock

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Fake is a manually driven Clock for tests.
//
// Time stands still until Advance is called. Advance fires every timer whose
// deadline falls within the advanced span in deadline order, setting Now to
// each deadline as it fires.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	created chan struct{}
}

// NewFake creates a fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, created: make(chan struct{}, 1)}
}

type fakeTimer struct {
	clock *Fake
	when  time.Time
	ch    chan time.Time
	done  bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.clock.removeLocked(t)
	return true
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTimer implements Clock. A non-positive duration fires immediately.
func (f *Fake) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{clock: f, when: f.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		t.done = true
		t.ch <- f.now
		return t
	}
	f.timers = append(f.timers, t)
	select {
	case f.created <- struct{}{}:
	default:
	}
	return t
}

// Advance moves the clock forward by d, firing due timers.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.now.Add(d)
	for {
		next := f.earliestLocked()
		if next == nil || next.when.After(target) {
			break
		}
		f.now = next.when
		next.done = true
		f.removeLocked(next)
		next.ch <- next.when
	}
	f.now = target
}

// AdvanceToNext moves the clock to the earliest pending deadline and fires
// every timer due at that instant. It reports false when no timer is
// pending.
func (f *Fake) AdvanceToNext() bool {
	f.mu.Lock()
	next := f.earliestLocked()
	if next == nil {
		f.mu.Unlock()
		return false
	}
	d := next.when.Sub(f.now)
	f.mu.Unlock()
	f.Advance(d)
	return true
}

// Pending returns the number of timers waiting to fire.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// BlockUntil waits until at least n timers are pending or ctx ends.
func (f *Fake) BlockUntil(ctx context.Context, n int) error {
	for {
		if f.Pending() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.created:
		case <-time.After(time.Millisecond):
		}
	}
}

func (f *Fake) earliestLocked() *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}
	return slices.MinFunc(f.timers, func(a, b *fakeTimer) int {
		return a.when.Compare(b.when)
	})
}

func (f *Fake) removeLocked(t *fakeTimer) {
	f.timers = slices.DeleteFunc(f.timers, func(x *fakeTimer) bool { return x == t })
}
