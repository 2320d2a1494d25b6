package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForkJoin runs f for every item concurrently and returns the results in
// item order, regardless of completion order. The first failure cancels the
// others and is returned.
//
// An empty items slice yields an empty result without calling f.
func ForkJoin[In, Out any](ctx context.Context, items []In, f func(context.Context, In) (Out, error)) ([]Out, error) {
	results := make([]Out, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out, err := f(gctx, item)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
