package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gates hands out one release channel per input so tests decide the order
// in which operations complete.
type gates struct {
	mu sync.Mutex
	m  map[int]chan struct{}
}

func newGates() *gates { return &gates{m: make(map[int]chan struct{})} }

func (g *gates) get(k int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.m[k]; !ok {
		g.m[k] = make(chan struct{})
	}
	return g.m[k]
}

func (g *gates) release(k int) { close(g.get(k)) }

func gatedOp(g *gates, started chan<- int) Op[int, int] {
	return func(ctx context.Context, in int, emit func(int) bool) error {
		if started != nil {
			started <- in
		}
		select {
		case <-g.get(in):
		case <-ctx.Done():
			return ctx.Err()
		}
		emit(in * 10)
		return nil
	}
}

func next(t *testing.T, s *Stream[int]) int {
	t.Helper()
	select {
	case v, ok := <-s.C():
		if !ok {
			t.Fatalf("stream closed early: %v", s.Err())
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		return 0
	}
}

func closed(t *testing.T, s *Stream[int]) error {
	t.Helper()
	select {
	case v, ok := <-s.C():
		require.False(t, ok, "unexpected value %d", v)
		return s.Err()
	case <-time.After(time.Second):
		t.Fatal("stream did not close")
		return nil
	}
}

func send(t *testing.T, in chan<- int, v int) {
	t.Helper()
	select {
	case in <- v:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not accept input")
	}
}

func TestDispatch_MergeEmitsInCompletionOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	started := make(chan int, 2)
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Merge}, gatedOp(g, started))
	send(t, in, 1)
	send(t, in, 2)
	<-started
	<-started

	g.release(2)
	assert.Equal(t, 20, next(t, out))
	g.release(1)
	assert.Equal(t, 10, next(t, out))

	close(in)
	assert.NoError(t, closed(t, out))
}

func TestDispatch_SwitchDiscardsSuperseded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Switch}, gatedOp(g, nil))
	send(t, in, 1)
	send(t, in, 2)

	g.release(1)
	g.release(2)
	assert.Equal(t, 20, next(t, out))

	close(in)
	assert.NoError(t, closed(t, out))
}

func TestDispatch_SwitchDropsLateResultOfIgnoringOp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan struct{})
	in := make(chan int)

	// The first operation ignores cancellation and delivers anyway.
	op := func(ctx context.Context, v int, emit func(int) bool) error {
		if v == 1 {
			<-first
			emit(10)
			return errors.New("late failure")
		}
		emit(v * 10)
		return nil
	}
	out := Dispatch(ctx, in, Options{Policy: Switch}, op)
	send(t, in, 1)
	send(t, in, 2)
	assert.Equal(t, 20, next(t, out))

	close(first)
	close(in)
	assert.NoError(t, closed(t, out), "failures of superseded operations are ignored")
}

func TestDispatch_ConcatRunsOneAtATime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	started := make(chan int, 3)
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Concat}, gatedOp(g, started))
	send(t, in, 1)
	send(t, in, 2)
	assert.Equal(t, 1, <-started)

	select {
	case v := <-started:
		t.Fatalf("operation %d started before the first finished", v)
	case <-time.After(20 * time.Millisecond):
	}

	g.release(1)
	assert.Equal(t, 10, next(t, out))
	assert.Equal(t, 2, <-started)
	g.release(2)
	assert.Equal(t, 20, next(t, out))

	close(in)
	assert.NoError(t, closed(t, out))
}

func TestDispatch_ActivityCountsQueuedAndRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	in := make(chan int)
	activity := &Activity{}

	out := Dispatch(ctx, in, Options{Policy: Concat, Activity: activity}, gatedOp(g, nil))
	assert.True(t, activity.Idle())

	send(t, in, 1)
	send(t, in, 2)
	assert.Eventually(t, func() bool { return activity.InFlight() == 2 }, time.Second, time.Millisecond)

	g.release(1)
	assert.Equal(t, 10, next(t, out))
	assert.Eventually(t, func() bool { return activity.InFlight() == 1 }, time.Second, time.Millisecond)

	g.release(2)
	assert.Equal(t, 20, next(t, out))
	close(in)
	assert.NoError(t, closed(t, out))
	assert.True(t, activity.Idle())
}

func TestDispatch_ActivityReleasesSupersededOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	in := make(chan int)
	activity := &Activity{}

	out := Dispatch(ctx, in, Options{Policy: Switch, Activity: activity}, gatedOp(g, nil))
	send(t, in, 1)
	send(t, in, 2)
	send(t, in, 3)
	assert.Eventually(t, func() bool { return activity.InFlight() == 1 }, time.Second, time.Millisecond)

	g.release(3)
	assert.Equal(t, 30, next(t, out))
	close(in)
	assert.NoError(t, closed(t, out))
	assert.True(t, activity.Idle())
}

func TestActivity_NilCountsNothing(t *testing.T) {
	var a *Activity
	a.add(3)
	assert.True(t, a.Idle())
	assert.Equal(t, int64(0), a.InFlight())
}

var errBoom = errors.New("boom")

func failOn(bad int) Op[int, int] {
	return func(_ context.Context, v int, emit func(int) bool) error {
		if v == bad {
			return errBoom
		}
		emit(v * 10)
		return nil
	}
}

func TestDispatch_TerminateEndsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Merge, OnError: Terminate}, failOn(2))
	send(t, in, 1)
	assert.Equal(t, 10, next(t, out))
	send(t, in, 2)
	assert.ErrorIs(t, closed(t, out), errBoom)
}

func TestDispatch_RecoverKeepsServing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Merge, OnError: Recover}, failOn(2))
	send(t, in, 1)
	assert.Equal(t, 10, next(t, out))
	send(t, in, 2)
	send(t, in, 3)
	assert.Equal(t, 30, next(t, out))

	close(in)
	assert.NoError(t, closed(t, out))
}

func TestDispatch_CompletionWaitsForActive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGates()
	started := make(chan int, 1)
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Merge}, gatedOp(g, started))
	send(t, in, 1)
	<-started
	close(in)

	select {
	case <-out.C():
		t.Fatal("stream closed with an operation in flight")
	case <-time.After(20 * time.Millisecond):
	}

	g.release(1)
	assert.Equal(t, 10, next(t, out))
	assert.NoError(t, closed(t, out))
}

func TestDispatch_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := newGates()
	in := make(chan int)

	out := Dispatch(ctx, in, Options{Policy: Merge}, gatedOp(g, nil))
	send(t, in, 1)
	cancel()
	assert.ErrorIs(t, closed(t, out), context.Canceled)
}

func TestCallMany_EmitsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan int, 1)
	in <- 3
	close(in)

	op := CallMany(func(_ context.Context, n int) ([]int, error) {
		return []int{n, n + 1, n + 2}, nil
	})
	got, err := Dispatch(ctx, in, Options{}, op).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, got)
}

func TestPolicyAndErrorModeStrings(t *testing.T) {
	assert.Equal(t, "switch", Switch.String())
	assert.Equal(t, "concat", Concat.String())
	assert.Equal(t, "recover", Recover.String())
	assert.Equal(t, "Policy(9)", Policy(9).String())
}
