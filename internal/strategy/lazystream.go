package strategy

import (
	"context"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// LazyStream targets memory-limited runtimes: elements are produced one at
// a time instead of materializing intermediate collections, and emitted
// code uses the platform's lazy producer form. Restricted to small and
// medium workloads; streaming does not scale past them.
type LazyStream struct {
	base
}

// lazyStreamCap is the hard applicability ceiling for memory-limited
// runtimes.
const lazyStreamCap = 50_000

// NewLazyStream builds the variant against the shared estimator.
func NewLazyStream(est *costmodel.Estimator) *LazyStream {
	return &LazyStream{base: base{
		id:          engine.StrategyLazyStream,
		name:        "Lazy Stream",
		description: "Streamed element production for memory-limited runtimes such as browser/WASM.",
		profile: engine.PerformanceProfile{
			CPUEfficiency:    engine.RatingMedium,
			MemoryEfficiency: engine.RatingExcellent,
			Scalability:      engine.RatingLow,
			Optimal:          engine.OptimalRange{Min: 0, Max: 10_000},
		},
		platforms: engine.Support(
			engine.PlatformBrowser,
			engine.PlatformMobile,
		),
		weights: priorityWeights{
			base:          35,
			inOptimal:     15,
			beyondOptimal: -20,
			platformAffinity: map[engine.Platform]int{
				engine.PlatformBrowser: 30,
				engine.PlatformMobile:  25,
			},
		},
		maxElements: lazyStreamCap,
		estimator:   est,
		emitter:     emit.MustEmitter(engine.StrategyLazyStream, lazyStreamDefaultTemplate, lazyStreamTemplates),
	}}
}

// CanHandle restricts to memory-limited platforms and the hard cap, both
// enforced by the shared gates.
func (s *LazyStream) CanHandle(ictx engine.IterationContext) bool {
	return s.canHandle(ictx)
}

func (s *LazyStream) ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error {
	return forEachSequential(ctx, src, fn)
}

func (s *LazyStream) ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error) {
	return mapSequential(ctx, src, fn)
}

func (s *LazyStream) ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error) {
	return filterMapSequential(ctx, src, keep, fn)
}

func (s *LazyStream) ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error {
	return unsupportedAsync(s.id)
}

const lazyStreamDefaultTemplate = `IEnumerable<object> Produce()
{
    {{if .NullGuard}}if ({{.Collection}} == null)
    {
        yield break;
    }
    {{end}}foreach (var {{.Item}} in {{.Collection}})
    {
        {{.Action}}
        yield return {{.Item}};
    }
}`

var lazyStreamTemplates = map[engine.Platform]string{
	engine.PlatformBrowser: `function* produce() {
    {{if .NullGuard}}if ({{.Collection}} == null) {
        return;
    }
    {{end}}for (const {{.Item}} of {{.Collection}}) {
        {{.Action}}
        yield {{.Item}};
    }
}`,
}
