package epic

import (
	"context"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

// Ping answers every ping with a pong.
func Ping(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.Ping](ctx, in),
		options(deps, "ping", stream.Concat, stream.Terminate),
		func(_ context.Context, _ action.Ping, emit func(action.Action) bool) error {
			emit(action.Pong{})
			return nil
		})
}

// Pong ends the game on every pong.
func Pong(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.Pong](ctx, in),
		options(deps, "pong", stream.Concat, stream.Terminate),
		func(_ context.Context, _ action.Pong, emit func(action.Action) bool) error {
			emit(action.EndGame{})
			return nil
		})
}
