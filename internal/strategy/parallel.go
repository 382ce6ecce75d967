package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// ParallelQuery fans work across the bounded worker pool. It only makes
// sense above a minimum element count, pays for partitioning with extra
// memory, and is the one variant with a true asynchronous path. Output
// order always matches input order; per-item failures are aggregated.
type ParallelQuery struct {
	base
}

// NewParallelQuery builds the variant against the shared estimator.
func NewParallelQuery(est *costmodel.Estimator) *ParallelQuery {
	return &ParallelQuery{base: base{
		id:          engine.StrategyParallelQuery,
		name:        "Parallel Query",
		description: "Multicore fan-out for large CPU-bound workloads; aggregates per-item failures.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:    engine.RatingExcellent,
			MemoryEfficiency: engine.RatingLow,
			Scalability:      engine.RatingExcellent,
			Optimal:          engine.OptimalRange{Min: 10_000, Max: 0},
			SupportsParallel: true,
			SupportsAsync:    true,
		},
		platforms: engine.Support(
			engine.PlatformDotnet,
			engine.PlatformServer,
		),
		weights: priorityWeights{
			base:           40,
			inOptimal:      20,
			cpuBound:       20,
			manyCores:      10,
			largeCount:     5,
			largeThreshold: 100_000,
		},
		estimator: est,
		emitter:   emit.MustEmitter(engine.StrategyParallelQuery, parallelDefaultTemplate, parallelTemplates),
	}}
}

// CanHandle additionally requires the minimum element count that makes
// fan-out worth its coordination overhead.
func (s *ParallelQuery) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx) && ictx.ElementCount >= s.profile.Optimal.Min
}

func (s *ParallelQuery) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachParallel(ctx, src, fn)
}

func (s *ParallelQuery) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapParallel(ctx, src, fn)
}

func (s *ParallelQuery) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	return filterMapParallel(ctx, src, keep, fn)
}

func (s *ParallelQuery) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return asyncParallel(ctx, src, fn)
}

const parallelDefaultTemplate = `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}Parallel.ForEach({{.Collection}}, {{.Item}} =>
{
    {{.Action}}
});{{if .NullGuard}}
}{{end}}`

var parallelTemplates = map[engine.Platform]string{
	engine.PlatformServer: `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}{{.Collection}}.AsParallel().ForAll({{.Item}} =>
{
    {{.Action}}
});{{if .NullGuard}}
}{{end}}`,
}
