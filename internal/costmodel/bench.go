package costmodel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loopforge/internal/engine"
	"loopforge/internal/logging"
)

// Runner is the slice of a strategy the benchmark needs: identity plus a
// direct map path to drive synthetic workloads through.
type Runner interface {
	ID() string
	ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error)
}

// BenchOptions controls a calibration run.
type BenchOptions struct {
	// Sizes are the element counts to measure.
	Sizes []int

	// Rounds is how many times each size is repeated.
	Rounds int
}

// DefaultBenchOptions returns the standard measurement grid.
func DefaultBenchOptions() BenchOptions {
	return BenchOptions{
		Sizes:  []int{1_000, 10_000, 100_000},
		Rounds: 3,
	}
}

// BenchResult is one measurement: a strategy ran a synthetic workload of
// Size elements in Elapsed, costing PerItemNs per element.
type BenchResult struct {
	StrategyID string
	Size       int
	Elapsed    time.Duration
	PerItemNs  float64
}

// RunBench measures every runner against synthetic CPU-bound workloads.
// Cancellation is honored between measurements; partial results are
// returned with the error.
func RunBench(ctx context.Context, runners []Runner, opts BenchOptions) ([]BenchResult, error) {
	if len(opts.Sizes) == 0 {
		opts = DefaultBenchOptions()
	}
	if opts.Rounds < 1 {
		opts.Rounds = 1
	}

	log := logging.L(logging.CategoryCalibrate)
	var results []BenchResult

	for _, runner := range runners {
		for _, size := range opts.Sizes {
			for round := 0; round < opts.Rounds; round++ {
				if err := ctx.Err(); err != nil {
					return results, err
				}

				res, err := measureOnce(ctx, runner, size)
				if err != nil {
					return results, fmt.Errorf("bench %s at %d elements: %w", runner.ID(), size, err)
				}
				results = append(results, res)

				log.Debug("bench sample",
					zap.String("strategy", res.StrategyID),
					zap.Int("size", res.Size),
					zap.Float64("per_item_ns", res.PerItemNs))
			}
		}
	}

	return results, nil
}

// measureOnce runs one synthetic workload through a runner's map path.
func measureOnce(ctx context.Context, runner Runner, size int) (BenchResult, error) {
	src := engine.Generate(size, func(i int) any { return i })

	start := time.Now()
	_, err := runner.ExecuteMap(ctx, src, mixTransform)
	elapsed := time.Since(start)
	if err != nil {
		return BenchResult{}, err
	}

	perItem := 0.0
	if size > 0 {
		perItem = float64(elapsed.Nanoseconds()) / float64(size)
	}

	return BenchResult{
		StrategyID: runner.ID(),
		Size:       size,
		Elapsed:    elapsed,
		PerItemNs:  perItem,
	}, nil
}

// mixTransform is a small integer-mixing workload: enough arithmetic to
// dominate loop bookkeeping without touching memory.
func mixTransform(item any) (any, error) {
	v, _ := item.(int)
	x := uint64(v) + 0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	return int(x & 0x7fffffff), nil
}

// StoreResults records a benchmark batch under a fresh run id.
func StoreResults(store *SampleStore, hostCores int, results []BenchResult) (string, error) {
	runID, err := store.BeginRun(hostCores)
	if err != nil {
		return "", err
	}
	for _, res := range results {
		if err := store.RecordSample(runID, res.StrategyID, res.Size, res.PerItemNs); err != nil {
			return runID, err
		}
	}
	return runID, nil
}
