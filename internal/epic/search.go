package epic

import (
	"context"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/state"
	"github.com/roach88/epicflow/internal/stream"
	"github.com/roach88/epicflow/internal/timing"
)

// SearchProduct throttles search requests on both edges, so the first and
// the latest phrase of a burst are searched, and emits setProducts for each
// search as it completes.
func SearchProduct(ctx context.Context, in <-chan action.Action, _ state.Reader, deps Dependencies) *stream.Stream[action.Action] {
	cfg := timing.ThrottleConfig{
		Window:   orDefault(deps.SearchThrottle, DefaultSearchThrottle),
		Leading:  true,
		Trailing: true,
	}
	throttled, err := timing.ThrottleChan(ctx, deps.clock(), cfg, ofType[action.SearchProduct](ctx, in))
	if err != nil {
		return failed(ctx, in, err)
	}
	return stream.Dispatch(ctx, throttled,
		options(deps, "searchProduct", stream.Merge, stream.Terminate),
		func(ctx context.Context, a action.SearchProduct, emit func(action.Action) bool) error {
			products, err := deps.API.SearchProducts(ctx, a.SearchPhrase)
			if err != nil {
				return err
			}
			emit(action.SetProducts{Products: products})
			return nil
		})
}
