package epic

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/api"
	"github.com/roach88/epicflow/internal/clock"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

// Default throttle windows.
const (
	DefaultLoginThrottle  = 150 * time.Millisecond
	DefaultSearchThrottle = 250 * time.Millisecond
)

// Dependencies are the collaborators handed to every epic.
type Dependencies struct {
	API      api.Client
	Messages api.MessageSource
	Clock    clock.Clock
	Logger   *slog.Logger

	// Activity counts the epics' operations in flight. The engine sets it
	// to decide when a stopping run has gone quiet.
	Activity *stream.Activity

	// Throttle windows; zero means the default.
	LoginThrottle  time.Duration
	SearchThrottle time.Duration
}

func (d Dependencies) clock() clock.Clock {
	if d.Clock == nil {
		return clock.Real{}
	}
	return d.Clock
}

func (d Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// Epic maps the action stream to a stream of follow-up actions. The output
// ends when actions closes and all work has drained, when ctx ends, or with
// the error of a failed operation.
type Epic func(ctx context.Context, actions <-chan action.Action, st state.Reader, deps Dependencies) *stream.Stream[action.Action]

// Named pairs an epic with the name used in logs, traces and configuration.
type Named struct {
	Name string
	Epic Epic
}

func ofType[T action.Action](ctx context.Context, in <-chan action.Action) <-chan T {
	return stream.Select(ctx, in, action.As[T])
}

func options(deps Dependencies, name string, p stream.Policy, m stream.ErrorMode) stream.Options {
	return stream.Options{Policy: p, OnError: m, Name: name, Logger: deps.logger(), Activity: deps.Activity}
}

// failed returns a stream that ends at once with err. The input is drained
// so upstream senders are never blocked by a broken epic.
func failed(ctx context.Context, in <-chan action.Action, err error) *stream.Stream[action.Action] {
	go func() {
		for {
			select {
			case _, ok := <-in:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	s, w := stream.Pipe[action.Action]()
	w.Close(err)
	return s
}

// Combine runs several epics over the same input and merges their outputs.
// Every epic sees every action in dispatch order. If one epic fails, the
// combined stream ends with its error and the others are cancelled.
func Combine(epics ...Named) Epic {
	return func(ctx context.Context, actions <-chan action.Action, st state.Reader, deps Dependencies) *stream.Stream[action.Action] {
		ctx, cancel := context.WithCancel(ctx)

		inputs := make([]chan action.Action, len(epics))
		outputs := make([]*stream.Stream[action.Action], len(epics))
		for i, e := range epics {
			inputs[i] = make(chan action.Action)
			outputs[i] = e.Epic(ctx, inputs[i], st, deps)
		}

		go func() {
			defer func() {
				for _, in := range inputs {
					close(in)
				}
			}()
			for {
				select {
				case a, ok := <-actions:
					if !ok {
						return
					}
					for _, in := range inputs {
						select {
						case in <- a:
						case <-ctx.Done():
							return
						}
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		merged := stream.MergeStreams(ctx, outputs...)
		s, w := stream.Pipe[action.Action]()
		go func() {
			defer cancel()
			for a := range merged.C() {
				if !w.Send(ctx, a) {
					break
				}
			}
			for range merged.C() {
			}
			w.Close(merged.Err())
		}()
		return s
	}
}
