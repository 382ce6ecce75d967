package strategy

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"loopforge/internal/engine"
)

// Worker pool bounds for the parallel paths. Matches the cost model's
// credited-core cap; beyond eight workers coordination eats the gains.
const (
	minWorkers = 2
	maxWorkers = 8
)

// workerCount sizes the parallel pool from the host CPU count.
func workerCount() int {
	w := runtime.NumCPU()
	if w > maxWorkers {
		w = maxWorkers
	}
	if w < minWorkers {
		w = minWorkers
	}
	return w
}

// elementAt resolves positional access once per call: sources with the
// capability are indexed directly, everything else is materialized with a
// single sequential pass.
func elementAt(src engine.Sequence) func(i int) any {
	if ix, ok := src.(engine.Indexable); ok {
		return ix.At
	}
	items := engine.Collect(src)
	return func(i int) any { return items[i] }
}

// forEachSequential applies fn in order, checking cancellation between
// items. The first failure stops the scan.
func forEachSequential(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	i := 0
	for item := range src.Seq() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return engine.ItemError{Index: i, Err: err}
		}
		i++
	}
	return nil
}

// forEachPositional walks an indexable source by position, falling back to
// the sequential scan when the capability is absent.
func forEachPositional(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	ix, ok := src.(engine.Indexable)
	if !ok {
		return forEachSequential(ctx, src, fn)
	}
	for i := 0; i < ix.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ix.At(i)); err != nil {
			return engine.ItemError{Index: i, Err: err}
		}
	}
	return nil
}

// mapPositional transforms by index when the source supports it, falling
// back to the sequential scan otherwise.
func mapPositional(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	ix, ok := src.(engine.Indexable)
	if !ok {
		return mapSequential(ctx, src, fn)
	}
	out := make([]any, ix.Len())
	for i := 0; i < ix.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fn(ix.At(i))
		if err != nil {
			return nil, engine.ItemError{Index: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// filterMapPositional filters then transforms by index, preserving input
// order; falls back to the sequential scan without the capability.
func filterMapPositional(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	ix, ok := src.(engine.Indexable)
	if !ok {
		return filterMapSequential(ctx, src, keep, fn)
	}
	out := make([]any, 0, ix.Len())
	for i := 0; i < ix.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := ix.At(i)
		if !keep(item) {
			continue
		}
		v, err := fn(item)
		if err != nil {
			return nil, engine.ItemError{Index: i, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// mapSequential transforms in order; first failure stops the scan.
func mapSequential(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	out := make([]any, 0, src.Len())
	i := 0
	for item := range src.Seq() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fn(item)
		if err != nil {
			return nil, engine.ItemError{Index: i, Err: err}
		}
		out = append(out, v)
		i++
	}
	return out, nil
}

// filterMapSequential filters then transforms, preserving input order.
func filterMapSequential(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	out := make([]any, 0, src.Len())
	i := 0
	for item := range src.Seq() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if keep(item) {
			v, err := fn(item)
			if err != nil {
				return nil, engine.ItemError{Index: i, Err: err}
			}
			out = append(out, v)
		}
		i++
	}
	return out, nil
}

// parallelRun fans index-addressed work across the bounded pool. Work is
// chunked so each goroutine owns a contiguous index range; per-item
// failures are collected, never short-circuited, and cancellation is
// checked per item. The only error a chunk itself returns is cancellation.
func parallelRun(ctx context.Context, n int, work func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	workers := workerCount()
	chunk := (n + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	var mu sync.Mutex
	var failures []engine.ItemError

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				if err := work(egCtx, i); err != nil {
					mu.Lock()
					failures = append(failures, engine.ItemError{Index: i, Err: err})
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
		return &engine.AggregateExecutionError{Items: failures}
	}
	return nil
}

// mapParallel transforms across the pool; results land by input index so
// output order is independent of completion order.
func mapParallel(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	n := src.Len()
	at := elementAt(src)
	out := make([]any, n)

	err := parallelRun(ctx, n, func(_ context.Context, i int) error {
		v, err := fn(at(i))
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// filterMapParallel filters and transforms across the pool, then compacts
// survivors in input order.
func filterMapParallel(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	n := src.Len()
	at := elementAt(src)
	kept := make([]bool, n)
	vals := make([]any, n)

	err := parallelRun(ctx, n, func(_ context.Context, i int) error {
		item := at(i)
		if !keep(item) {
			return nil
		}
		v, err := fn(item)
		if err != nil {
			return err
		}
		vals[i] = v
		kept[i] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		if kept[i] {
			out = append(out, vals[i])
		}
	}
	return out, nil
}

// forEachParallel applies an action across the pool.
func forEachParallel(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	at := elementAt(src)
	return parallelRun(ctx, src.Len(), func(_ context.Context, i int) error {
		return fn(at(i))
	})
}

// asyncParallel fans potentially blocking actions across the pool.
func asyncParallel(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	at := elementAt(src)
	return parallelRun(ctx, src.Len(), func(itemCtx context.Context, i int) error {
		return fn(itemCtx, at(i))
	})
}
