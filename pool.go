package textmodel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBatch applies fn to every item and returns the results in item order. With
// workers <= 1 the items run sequentially on the calling goroutine; otherwise at
// most workers run at once. RunBatch returns only after the whole batch has
// finished. The first error cancels the context passed to the remaining calls
// and is returned.
func RunBatch[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	if workers <= 1 || len(items) <= 1 {
		for i, item := range items {
			r, err := fn(ctx, item)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			// Each goroutine owns its slot.
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
