package stream

import "context"

// Stream is a sequence of values that ends with an optional error.
//
// Err is only meaningful once C has been closed.
type Stream[T any] struct {
	c   <-chan T
	err error
}

// C returns the channel of values.
func (s *Stream[T]) C() <-chan T { return s.c }

// Err returns the error that ended the stream, or nil if it completed.
func (s *Stream[T]) Err() error { return s.err }

// Writer is the producing end of a Stream.
type Writer[T any] struct {
	s *Stream[T]
	c chan T
}

// Pipe returns a connected Stream and Writer.
func Pipe[T any]() (*Stream[T], *Writer[T]) {
	c := make(chan T)
	s := &Stream[T]{c: c}
	return s, &Writer[T]{s: s, c: c}
}

// Send delivers v, blocking until it is received or ctx ends.
func (w *Writer[T]) Send(ctx context.Context, v T) bool {
	select {
	case w.c <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close ends the stream with err. It must be called exactly once.
func (w *Writer[T]) Close(err error) {
	w.s.err = err
	close(w.c)
}

// Of returns a stream that yields vals and completes.
func Of[T any](ctx context.Context, vals ...T) *Stream[T] {
	s, w := Pipe[T]()
	go func() {
		for _, v := range vals {
			if !w.Send(ctx, v) {
				w.Close(ctx.Err())
				return
			}
		}
		w.Close(nil)
	}()
	return s
}

// FromChan wraps a channel that its owner closes on completion.
func FromChan[T any](c <-chan T) *Stream[T] {
	return &Stream[T]{c: c}
}

// Collect drains s into a slice.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		select {
		case v, ok := <-s.c:
			if !ok {
				return out, s.err
			}
			out = append(out, v)
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

// Select forwards the values of in that pick accepts, converted to U.
// The output closes when in closes or ctx ends.
func Select[T, U any](ctx context.Context, in <-chan T, pick func(T) (U, bool)) <-chan U {
	out := make(chan U)
	go func() {
		defer close(out)
		for {
			select {
			case v, ok := <-in:
				if !ok {
					return
				}
				u, ok := pick(v)
				if !ok {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// MergeStreams interleaves the values of several streams.
//
// The merged stream completes when every input has completed. The first
// error ends it immediately; the remaining inputs are drained and discarded
// in the background until they close.
func MergeStreams[T any](ctx context.Context, streams ...*Stream[T]) *Stream[T] {
	s, w := Pipe[T]()
	type result struct {
		v    T
		err  error
		done bool
	}
	results := make(chan result)
	for _, in := range streams {
		go func(in *Stream[T]) {
			for v := range in.C() {
				select {
				case results <- result{v: v}:
				case <-ctx.Done():
				}
			}
			select {
			case results <- result{done: true, err: in.Err()}:
			case <-ctx.Done():
			}
		}(in)
	}

	go func() {
		remaining := len(streams)
		for remaining > 0 {
			select {
			case r := <-results:
				switch {
				case !r.done:
					if !w.Send(ctx, r.v) {
						w.Close(ctx.Err())
						return
					}
				case r.err != nil:
					w.Close(r.err)
					go func(remaining int) {
						for remaining > 0 {
							select {
							case r := <-results:
								if r.done {
									remaining--
								}
							case <-ctx.Done():
								return
							}
						}
					}(remaining - 1)
					return
				default:
					remaining--
				}
			case <-ctx.Done():
				w.Close(ctx.Err())
				return
			}
		}
		w.Close(nil)
	}()
	return s
}
