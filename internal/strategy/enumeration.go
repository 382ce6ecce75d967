package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// EnumerationLoop walks any sequence in declaration order through its
// iterator. It trades a little per-item overhead for working on every
// source shape, making it the dependable generalist.
type EnumerationLoop struct {
	base
}

// NewEnumerationLoop builds the variant against the shared estimator.
func NewEnumerationLoop(est *costmodel.Estimator) *EnumerationLoop {
	return &EnumerationLoop{base: base{
		id:          engine.StrategyEnumerationLoop,
		name:        "Sequential Enumeration",
		description: "Iterator-driven foreach balancing simplicity and moderate throughput on any sequence.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:    engine.RatingMedium,
			MemoryEfficiency: engine.RatingHigh,
			Scalability:      engine.RatingMedium,
			Optimal:          engine.OptimalRange{Min: 0, Max: 50_000},
			RealTimeSafe:     true,
		},
		platforms: engine.SupportAll(),
		weights: priorityWeights{
			base:          45,
			inOptimal:     10,
			beyondOptimal: -10,
			realTime:      20,
		},
		estimator: est,
		emitter:   emit.MustEmitter(engine.StrategyEnumerationLoop, enumerationDefaultTemplate, enumerationTemplates),
	}}
}

// CanHandle accepts every platform; only the shared gates apply.
func (s *EnumerationLoop) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx)
}

func (s *EnumerationLoop) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachSequential(ctx, src, fn)
}

func (s *EnumerationLoop) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapSequential(ctx, src, fn)
}

func (s *EnumerationLoop) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	return filterMapSequential(ctx, src, keep, fn)
}

func (s *EnumerationLoop) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return unsupportedAsync(s.id)
}

const enumerationDefaultTemplate = `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}foreach (var {{.Item}} in {{.Collection}})
{
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`

var enumerationTemplates = map[engine.Platform]string{
	engine.PlatformBrowser: `{{if .NullGuard}}if ({{.Collection}} != null) {
{{end}}for (const {{.Item}} of {{.Collection}}) {
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`,
}
