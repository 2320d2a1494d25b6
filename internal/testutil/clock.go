package testutil

import (
	"sync"
	"time"

	"github.com/roach88/epicflow/internal/clock"
)

// Epoch is the instant every fake clock in tests starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock returns a fake wall clock reading Epoch.
func NewFakeClock() *clock.Fake {
	return clock.NewFake(Epoch)
}

// DeterministicClock is a resettable logical clock for tests.
//
// It satisfies the engine's sequencer interface, so a scenario run twice
// with the same clock after Reset produces identical sequence numbers.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
