package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// FrameBudgetLoop targets game-engine runtimes: a positional loop with the
// collection length hoisted out of the condition, no incremental
// allocation, and a hard element cap so one frame never swallows an
// unbounded workload.
type FrameBudgetLoop struct {
	base
}

// frameBudgetCap is the hard applicability ceiling; larger workloads do
// not belong inside a frame.
const frameBudgetCap = 20_000

// NewFrameBudgetLoop builds the variant against the shared estimator.
func NewFrameBudgetLoop(est *costmodel.Estimator) *FrameBudgetLoop {
	return &FrameBudgetLoop{base: base{
		id:          engine.StrategyFrameBudgetLoop,
		name:        "Frame Budget Loop",
		description: "Allocation-averse positional loop for game-engine runtimes under frame-time budgets.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:      engine.RatingExcellent,
			MemoryEfficiency:   engine.RatingExcellent,
			Scalability:        engine.RatingLow,
			Optimal:            engine.OptimalRange{Min: 0, Max: 5_000},
			RequiresPositional: true,
			RealTimeSafe:       true,
		},
		platforms: engine.Support(engine.PlatformUnity),
		weights: priorityWeights{
			base:          40,
			inOptimal:     5,
			beyondOptimal: -15,
			realTime:      15,
			platformAffinity: map[engine.Platform]int{
				engine.PlatformUnity: 40,
			},
		},
		maxElements: frameBudgetCap,
		estimator:   est,
		emitter:     emit.MustEmitter(engine.StrategyFrameBudgetLoop, frameBudgetDefaultTemplate, frameBudgetTemplates),
	}}
}

// CanHandle restricts to the game-engine platform and the hard cap, both
// enforced by the shared gates.
func (s *FrameBudgetLoop) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx)
}

func (s *FrameBudgetLoop) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachPositional(ctx, src, fn)
}

func (s *FrameBudgetLoop) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapPositional(ctx, src, fn)
}

func (s *FrameBudgetLoop) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	return filterMapPositional(ctx, src, keep, fn)
}

// ExecuteAsync is rejected: asynchronous work inside a frame budget is a
// contradiction.
func (s *FrameBudgetLoop) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return unsupportedAsync(s.id)
}

const frameBudgetDefaultTemplate = `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}int count = {{.Collection}}.Count;
for (int i = 0; i < count; i++)
{
    {{if .BoundsCheck}}if (i >= count)
    {
        break;
    }
    {{end}}var {{.Item}} = {{.Collection}}[i];
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`

var frameBudgetTemplates = map[engine.Platform]string{
	engine.PlatformUnity: `{{if .NullGuard}}if ({{.Collection}} != null)
{
{{end}}for (int i = 0, count = {{.Collection}}.Count; i < count; i++)
{
    {{if .BoundsCheck}}if (i >= count)
    {
        break;
    }
    {{end}}var {{.Item}} = {{.Collection}}[i];
    {{.Action}}
}{{if .NullGuard}}
}{{end}}`,
}
