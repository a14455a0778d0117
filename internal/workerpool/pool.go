// Package workerpool provides a small helper for running a function over a
// slice of items with bounded concurrency.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run executes fn for each item in items using at most workers goroutines.
// It returns the first non-nil error from fn, or nil if all succeed.
// In-flight calls finish even after one returns an error.
func Run[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		item := item
		g.Go(func() error {
			return fn(ctx, item)
		})
	}

	return g.Wait()
}
