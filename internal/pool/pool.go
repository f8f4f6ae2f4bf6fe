// Package pool provides bounded concurrent fan-out with isolated failure.
package pool

import (
	"context"
	"log/slog"
	"sync"
)

// MapWithLimit runs fn over items with at most limit tasks in flight. As
// each task completes the next queued item starts immediately. Results are
// written into a pre-sized slice by original index, so output order always
// matches input order regardless of completion order, and each task owns
// exactly one slot, so no locking is needed. A panicking task leaves its zero
// value in place and never cancels siblings; fn is expected to convert its
// own errors into placeholder values.
func MapWithLimit[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, idx int, item T) R) []R {
	if limit <= 0 {
		limit = 1
	}
	out := make([]R, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Pooled task panicked", "index", idx, "panic", r)
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[idx] = fn(ctx, idx, items[idx])
		}(i)
	}
	wg.Wait()
	return out
}
