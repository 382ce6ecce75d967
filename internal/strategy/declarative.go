package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// DeclarativeQuery executes composition-style pipelines: filter and
// transform run as separate stages with an intermediate buffer, mirroring
// the materialization cost its estimate carries. Best readability, capped
// optimal size.
type DeclarativeQuery struct {
	base
}

// NewDeclarativeQuery builds the variant against the shared estimator.
func NewDeclarativeQuery(est *costmodel.Estimator) *DeclarativeQuery {
	return &DeclarativeQuery{base: base{
		id:          engine.StrategyDeclarativeQuery,
		name:        "Declarative Query",
		description: "Composition-style map/filter pipeline favoring readability over raw throughput.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:    engine.RatingLow,
			MemoryEfficiency: engine.RatingLow,
			Scalability:      engine.RatingMedium,
			Optimal:          engine.OptimalRange{Min: 0, Max: 10_000},
		},
		platforms: engine.Support(
			engine.PlatformDotnet,
			engine.PlatformBrowser,
			engine.PlatformMobile,
			engine.PlatformServer,
		),
		weights: priorityWeights{
			base:      55,
			inOptimal: 15,
			// Past the optimal band the pipeline overhead dominates and
			// fitness collapses.
			beyondOptimal: -45,
		},
		estimator: est,
		emitter:   emit.MustEmitter(engine.StrategyDeclarativeQuery, declarativeDefaultTemplate, declarativeTemplates),
	}}
}

// CanHandle rejects game-engine runtimes (undeclared) and real-time
// contexts via the shared gates.
func (s *DeclarativeQuery) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx)
}

func (s *DeclarativeQuery) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachSequential(ctx, src, fn)
}

func (s *DeclarativeQuery) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapSequential(ctx, src, fn)
}

// ExecuteFilterMap runs as two composed stages: the filter materializes an
// intermediate sequence, then the transform maps it. Item indices in
// failures refer to the stage input.
func (s *DeclarativeQuery) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	filtered := make([]any, 0, src.Len())
	for item := range src.Seq() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if keep(item) {
			filtered = append(filtered, item)
		}
	}
	return mapSequential(ctx, engine.FromSlice(filtered), fn)
}

func (s *DeclarativeQuery) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return unsupportedAsync(s.id)
}

const declarativeDefaultTemplate = `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}{{.Collection}}.ToList().ForEach({{.Item}} =>
{
    {{.Action}}
});{{if .NullGuard}}
}{{end}}`

var declarativeTemplates = map[engine.Platform]string{
	engine.PlatformBrowser: `{{if .NullGuard}}if ({{.Collection}} != null) {
{{end}}{{.Collection}}.forEach(({{.Item}}) => {
    {{.Action}}
});{{if .NullGuard}}
}{{end}}`,
}
