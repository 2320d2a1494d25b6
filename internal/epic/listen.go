package epic

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

// ErrNoMessageSource is returned when listening starts without a source.
var ErrNoMessageSource = errors.New("no message source configured")

// stopSignal hands every listening start a channel that the next stop
// action closes.
type stopSignal struct {
	mu sync.Mutex
	ch chan struct{}
}

func newStopSignal() *stopSignal {
	return &stopSignal{ch: make(chan struct{})}
}

func (s *stopSignal) current() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

func (s *stopSignal) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.ch)
	s.ch = make(chan struct{})
}

type listenRequest struct {
	stop <-chan struct{}
}

// ListenMessages opens a subscription for every startListening action and
// emits setMessage for each message, for as long as the feed lasts.
// stopListening releases every subscription opened before it.
func ListenMessages(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	stop := newStopSignal()
	// The stop channel is captured in input order, so a stop always applies
	// to the starts that preceded it.
	requests := stream.Select(ctx, in, func(a action.Action) (listenRequest, bool) {
		switch a.(type) {
		case action.StartListening:
			return listenRequest{stop: stop.current()}, true
		case action.StopListening:
			stop.fire()
		}
		return listenRequest{}, false
	})

	logger := deps.logger()
	return stream.Dispatch(ctx, requests,
		options(deps, "listenMessages", stream.Merge, stream.Terminate),
		func(ctx context.Context, req listenRequest, emit func(action.Action) bool) error {
			if deps.Messages == nil {
				return ErrNoMessageSource
			}
			sub, err := deps.Messages.Open(ctx)
			if err != nil {
				return err
			}
			defer sub.Close()
			logger.Debug("listening for messages")

			for {
				select {
				case m, ok := <-sub.Messages():
					if !ok {
						logger.Debug("message feed ended")
						return nil
					}
					if !emit(action.SetMessage{Message: m}) {
						return nil
					}
				case <-req.stop:
					logger.Debug("listening stopped")
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
}
