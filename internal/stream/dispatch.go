package stream

import (
	"context"
	"fmt"
	"log/slog"
)

// Policy decides how overlapping operations are combined.
type Policy int

const (
	// Merge runs every operation and emits results in completion order.
	Merge Policy = iota
	// Switch cancels the running operation when a new input arrives.
	Switch
	// Concat runs one operation at a time in input order.
	Concat
)

func (p Policy) String() string {
	switch p {
	case Merge:
		return "merge"
	case Switch:
		return "switch"
	case Concat:
		return "concat"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ErrorMode decides what an operation failure does to the stream.
type ErrorMode int

const (
	// Terminate ends the output with the first failure of a live operation.
	Terminate ErrorMode = iota
	// Recover logs the failure, drops that operation's result and keeps
	// serving later inputs.
	Recover
)

func (m ErrorMode) String() string {
	switch m {
	case Terminate:
		return "terminate"
	case Recover:
		return "recover"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// Options configures Dispatch.
type Options struct {
	Policy  Policy
	OnError ErrorMode
	// Name labels log records; usually the epic name.
	Name   string
	Logger *slog.Logger

	// Activity, when set, counts this dispatcher's operations.
	Activity *Activity
}

// Op is an asynchronous operation started for one input. It delivers
// results through emit, which reports false once the operation has been
// cancelled or superseded and should stop. Op must return when ctx ends.
type Op[In, Out any] func(ctx context.Context, in In, emit func(Out) bool) error

type opEvent[Out any] struct {
	gen  uint64
	out  Out
	done bool
	err  error
}

// Dispatch starts op for every value of in and merges the results
// according to opts.
//
// The output completes once in has closed and every live operation has
// finished. When ctx ends the output closes with ctx.Err().
func Dispatch[In, Out any](ctx context.Context, in <-chan In, opts Options, op Op[In, Out]) *Stream[Out] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("epic", opts.Name, "policy", opts.Policy.String())

	s, w := Pipe[Out]()
	activity := opts.Activity
	go func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var (
			events = make(chan opEvent[Out])
			active = make(map[uint64]context.CancelFunc)
			queued []In
			gen    uint64
			input  = in
		)
		// finish releases whatever is still counted before the output
		// closes, so a closed stream is never still busy.
		finish := func(err error) {
			activity.add(-(len(active) + len(queued)))
			w.Close(err)
		}

		start := func(v In) {
			gen++
			g := gen
			opCtx, opCancel := context.WithCancel(ctx)
			active[g] = opCancel
			logger.Debug("operation started", "gen", g)
			go func() {
				emit := func(o Out) bool {
					select {
					case events <- opEvent[Out]{gen: g, out: o}:
						return true
					case <-opCtx.Done():
						return false
					}
				}
				err := op(opCtx, v, emit)
				select {
				case events <- opEvent[Out]{gen: g, done: true, err: err}:
				case <-ctx.Done():
				}
			}()
		}

		for {
			if input == nil && len(active) == 0 && len(queued) == 0 {
				finish(nil)
				return
			}

			select {
			case <-ctx.Done():
				finish(ctx.Err())
				return

			case v, ok := <-input:
				if !ok {
					input = nil
					continue
				}
				activity.add(1)
				switch opts.Policy {
				case Switch:
					for g, c := range active {
						c()
						delete(active, g)
						activity.add(-1)
						logger.Debug("operation superseded", "gen", g)
					}
					start(v)
				case Concat:
					if len(active) > 0 {
						queued = append(queued, v)
						continue
					}
					start(v)
				default:
					start(v)
				}

			case ev := <-events:
				c, live := active[ev.gen]
				if !live {
					continue
				}
				if !ev.done {
					if !w.Send(ctx, ev.out) {
						finish(ctx.Err())
						return
					}
					continue
				}
				c()
				delete(active, ev.gen)
				activity.add(-1)

				if ev.err != nil {
					if opts.OnError == Terminate {
						logger.Debug("operation failed, terminating", "gen", ev.gen, "error", ev.err)
						finish(ev.err)
						return
					}
					logger.Warn("operation failed, recovered", "gen", ev.gen, "error", ev.err)
				}
				if opts.Policy == Concat && len(queued) > 0 {
					next := queued[0]
					queued = queued[1:]
					start(next)
				}
			}
		}
	}()
	return s
}

// Call adapts a single-result function to an Op.
func Call[In, Out any](f func(context.Context, In) (Out, error)) Op[In, Out] {
	return func(ctx context.Context, in In, emit func(Out) bool) error {
		out, err := f(ctx, in)
		if err != nil {
			return err
		}
		emit(out)
		return nil
	}
}

// CallMany adapts a function with several results to an Op. Results are
// emitted in slice order.
func CallMany[In, Out any](f func(context.Context, In) ([]Out, error)) Op[In, Out] {
	return func(ctx context.Context, in In, emit func(Out) bool) error {
		outs, err := f(ctx, in)
		if err != nil {
			return err
		}
		for _, o := range outs {
			if !emit(o) {
				return nil
			}
		}
		return nil
	}
}
