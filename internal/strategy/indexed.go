package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// IndexedLoop is the positional sequential loop: lowest per-item overhead,
// no allocation growth, and frame-budget safe. It wants positional access
// but degrades to a sequential scan for sources without it.
type IndexedLoop struct {
	base
}

// NewIndexedLoop builds the variant against the shared estimator.
func NewIndexedLoop(est *costmodel.Estimator) *IndexedLoop {
	return &IndexedLoop{base: base{
		id:          engine.StrategyIndexedLoop,
		name:        "Sequential Indexed Loop",
		description: "Positional for-loop tuned for small to medium CPU-bound synchronous work.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:      engine.RatingHigh,
			MemoryEfficiency:   engine.RatingExcellent,
			Scalability:        engine.RatingMedium,
			Optimal:            engine.OptimalRange{Min: 0, Max: 100_000},
			RequiresPositional: true,
			RealTimeSafe:       true,
		},
		platforms: engine.SupportAll(),
		weights: priorityWeights{
			base:          50,
			inOptimal:     15,
			beyondOptimal: -10,
			realTime:      30,
			cpuBound:      10,
		},
		estimator: est,
		emitter:   emit.MustEmitter(engine.StrategyIndexedLoop, indexedDefaultTemplate, indexedTemplates),
	}}
}

// CanHandle accepts every platform; only the shared gates apply.
func (s *IndexedLoop) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx)
}

func (s *IndexedLoop) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachPositional(ctx, src, fn)
}

func (s *IndexedLoop) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapPositional(ctx, src, fn)
}

func (s *IndexedLoop) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	return filterMapPositional(ctx, src, keep, fn)
}

func (s *IndexedLoop) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return unsupportedAsync(s.id)
}

const indexedDefaultTemplate = `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}for (int i = 0; i < {{.Collection}}.Count; i++)
{
    {{if .BoundsCheck}}if (i >= {{.Collection}}.Count)
    {
        break;
    }
    {{end}}var {{.Item}} = {{.Collection}}[i];
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`

var indexedTemplates = map[engine.Platform]string{
	engine.PlatformBrowser: `{{if .NullGuard}}if ({{.Collection}} != null) {
{{end}}for (let i = 0; i < {{.Collection}}.length; i++) {
    {{if .BoundsCheck}}if (i >= {{.Collection}}.length) {
        break;
    }
    {{end}}const {{.Item}} = {{.Collection}}[i];
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`,
}
