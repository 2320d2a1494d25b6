package testutil

import (
	"context"
	"sync"
)

// Gate blocks calls until the test releases them, so tests decide the order
// in which concurrent operations complete.
type Gate struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	arrived chan string
}

// NewGate returns a gate with no released keys.
func NewGate() *Gate {
	return &Gate{gates: make(map[string]chan struct{}), arrived: make(chan string, 64)}
}

func (g *Gate) get(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[key]
	if !ok {
		ch = make(chan struct{})
		g.gates[key] = ch
	}
	return ch
}

// Wait announces key and blocks until Release(key) or ctx ends.
func (g *Gate) Wait(ctx context.Context, key string) error {
	ch := g.get(key)
	g.arrived <- key
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release unblocks every current and future Wait for key.
func (g *Gate) Release(key string) {
	close(g.get(key))
}

// Arrived returns the key of the next call that reached Wait.
func (g *Gate) Arrived(ctx context.Context) (string, error) {
	select {
	case k := <-g.arrived:
		return k, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
