// Package distributor implements the pluggable synchronous/concurrent
// execution of per-metric work items: one interface,
// Sequential for a single-threaded loop and Concurrent for a parallel
// worker pool built on golang.org/x/sync/errgroup, the same vetted
// concurrency primitive pkg/event.Router.Fire uses for handler dispatch.
package distributor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkFunc is one unit of work. Its position in the slice handed to
// Perform is the position of its Result in the returned slice, which is
// how callers recover which input produced which result.
type WorkFunc[T any] func(ctx context.Context) (T, error)

// Distributor runs a slice of work functions and returns their results
// in input order. An error from one item is attached to that item's slot
// and does not cancel the others.
type Distributor interface {
	Perform(ctx context.Context, work []WorkFunc[any]) ([]Result[any], error)
}

// Result pairs one work item's outcome with any error it produced.
type Result[T any] struct {
	Value T
	Err   error
}

// Sequential iterates work items in order, in the calling goroutine.
type Sequential struct{}

func (Sequential) Perform(ctx context.Context, work []WorkFunc[any]) ([]Result[any], error) {
	results := make([]Result[any], len(work))
	for i, fn := range work {
		if err := ctx.Err(); err != nil {
			results[i] = Result[any]{Err: err}
			continue
		}
		v, err := fn(ctx)
		results[i] = Result[any]{Value: v, Err: err}
	}
	return results, nil
}

// Concurrent runs each work item on its own goroutine, gathered with
// errgroup.Group, and preserves input order in the returned slice by
// writing each result into its own pre-sized slot.
type Concurrent struct {
	// MaxConcurrency caps how many work items run simultaneously. Zero
	// means unbounded (errgroup.Group's default).
	MaxConcurrency int
}

func (c Concurrent) Perform(ctx context.Context, work []WorkFunc[any]) ([]Result[any], error) {
	results := make([]Result[any], len(work))

	group, groupCtx := errgroup.WithContext(context.WithoutCancel(ctx))
	if c.MaxConcurrency > 0 {
		group.SetLimit(c.MaxConcurrency)
	}

	for i, fn := range work {
		i, fn := i, fn
		group.Go(func() error {
			v, err := fn(groupCtx)
			results[i] = Result[any]{Value: v, Err: err}
			// A per-item error is attached to its own slot, not returned
			// to errgroup - returning it here would cancel sibling work.
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
