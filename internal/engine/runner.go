package engine

import (
	"context"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/epic"
)

// runner connects one epic to the engine: a feed queue drained into the
// epic's input, and a pump that queues the epic's output as engine events.
type runner struct {
	name   string
	feed   *queue[action.Action]
	cancel context.CancelFunc
}

func (e *Engine) start(ctx context.Context, n epic.Named) *runner {
	ctx, cancel := context.WithCancel(ctx)
	r := &runner{name: n.Name, feed: newQueue[action.Action](), cancel: cancel}

	in := make(chan action.Action)
	go r.forward(ctx, in)

	out := n.Epic(ctx, in, e, e.deps)
	go func() {
		// Enqueue fails only once Run has returned; keep draining so the
		// epic can finish.
		for a := range out.C() {
			e.queue.Enqueue(event{kind: eventAction, source: r.name, action: a})
		}
		e.queue.Enqueue(event{kind: eventEpicDone, source: r.name, runner: r, err: out.Err()})
	}()
	return r
}

// forward feeds queued actions to the epic in order and closes its input
// once the feed is closed and drained.
func (r *runner) forward(ctx context.Context, in chan<- action.Action) {
	defer close(in)
	for {
		if a, ok := r.feed.TryDequeue(); ok {
			select {
			case in <- a:
			case <-ctx.Done():
				return
			}
			continue
		}
		if r.feed.Drained() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-r.feed.Wait():
		}
	}
}

func (r *runner) stop() {
	r.feed.Close()
	r.cancel()
}
