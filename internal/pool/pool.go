// Package pool runs a batch of work items with a fixed concurrency
// ceiling, preserving input order in the results.
package pool

import (
	"context"
	"sync"
	"time"
)

const DefaultConcurrency = 4

// Options configures one Run call.
type Options struct {
	// Concurrency is the maximum number of workers in flight. Values
	// below 1 fall back to DefaultConcurrency.
	Concurrency int

	// Delay is slept after each completed unit of work while the slot
	// is still held, spacing out upstream calls even when the pool runs
	// below its ceiling. Zero disables it.
	Delay time.Duration
}

// Run invokes worker for every item with at most opts.Concurrency
// invocations in flight, and returns one result per item at the same
// index. Workers are expected to absorb their own failures and return a
// zero value; the pool never fails the batch and always waits for all
// outstanding work before returning. If ctx is cancelled, items not yet
// started are skipped and keep their zero result.
func Run[T, R any](ctx context.Context, items []T, worker func(context.Context, T) R, opts Options) []R {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	results := make([]R, len(items))
	slots := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}

		slots <- struct{}{}
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-slots }()

			results[i] = worker(ctx, item)

			if opts.Delay > 0 {
				select {
				case <-time.After(opts.Delay):
				case <-ctx.Done():
				}
			}
		}(i, item)
	}

	wg.Wait()
	return results
}
