package epic

import (
	"context"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
)

func fetchProductOp(deps Dependencies) stream.Op[action.FetchProduct, action.Action] {
	return func(ctx context.Context, a action.FetchProduct, emit func(action.Action) bool) error {
		p, err := deps.API.FetchProduct(ctx, a.ID)
		if err != nil {
			return err
		}
		emit(action.SetProduct{Product: p})
		return nil
	}
}

// FetchProduct fetches every requested product concurrently and emits
// setProduct in completion order. The first failure ends the epic.
func FetchProduct(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.FetchProduct](ctx, in),
		options(deps, "fetchProduct", stream.Merge, stream.Terminate),
		fetchProductOp(deps))
}

// FetchProductRecover is FetchProduct with failures swallowed: a failed
// fetch emits nothing and later requests are still served.
func FetchProductRecover(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.FetchProduct](ctx, in),
		options(deps, "fetchProductRecover", stream.Merge, stream.Recover),
		fetchProductOp(deps))
}

// FetchSelectedProduct keeps only the most recent request: a new request
// cancels the one in flight and its result is discarded.
func FetchSelectedProduct(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.FetchSelectedProduct](ctx, in),
		options(deps, "fetchSelectedProduct", stream.Switch, stream.Terminate),
		func(ctx context.Context, a action.FetchSelectedProduct, emit func(action.Action) bool) error {
			p, err := deps.API.FetchProduct(ctx, a.ID)
			if err != nil {
				return err
			}
			emit(action.SetSelectedProduct{Product: p})
			return nil
		})
}

// FetchUser loads a user profile, cancelling any earlier request.
func FetchUser(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	return stream.Dispatch(ctx, ofType[action.FetchUser](ctx, in),
		options(deps, "fetchUser", stream.Switch, stream.Terminate),
		func(ctx context.Context, a action.FetchUser, emit func(action.Action) bool) error {
			u, err := deps.API.FetchUser(ctx, a.ID)
			if err != nil {
				return err
			}
			emit(action.SetUser{User: u})
			return nil
		})
}
