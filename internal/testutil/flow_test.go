package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedSessionGenerator(t *testing.T) {
	g := NewFixedSessionGenerator("s-1")
	assert.Equal(t, "s-1", g.Generate())
	assert.Equal(t, "s-1", g.Generate())
	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())
}

func TestGate_ReleaseOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g := NewGate()

	done := make(chan string, 2)
	for _, k := range []string{"a", "b"} {
		k := k
		go func() {
			if g.Wait(ctx, k) == nil {
				done <- k
			}
		}()
	}
	for i := 0; i < 2; i++ {
		_, err := g.Arrived(ctx)
		require.NoError(t, err)
	}

	g.Release("b")
	assert.Equal(t, "b", <-done)
	g.Release("a")
	assert.Equal(t, "a", <-done)
}

func TestGate_ContextEndsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewGate().Wait(ctx, "x"), context.Canceled)
}
