// Package parallel runs functions concurrently while preserving result
// order.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over every input concurrently and returns the outputs in
// input order. The first error cancels the remaining calls.
func Map[In, Out any](ctx context.Context, inputs []In, fn func(ctx context.Context, in In) (Out, error)) ([]Out, error) {
	eg, ctx := errgroup.WithContext(ctx)
	outs := make([]Out, len(inputs))
	for i, in := range inputs {
		eg.Go(func() error {
			out, err := fn(ctx, in)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}
