// Package strategy implements the interchangeable iteration variants the
// selector chooses between. Each variant is a self-contained capability
// set: applicability, fitness scoring, direct execution, performance
// estimation, and per-platform code emission. Variants are stateless after
// construction; one instance serves concurrent callers.
package strategy

import (
	"context"
	"fmt"

	"loopforge/internal/costmodel"
	"loopforge/internal/emit"
	"loopforge/internal/engine"
)

// Strategy is the capability set a registered iteration variant implements.
// The set is open for extension: anything implementing it can join the
// registry alongside the built-ins.
type Strategy interface {
	// ID returns the unique registry identifier.
	ID() string

	// Name returns the display name.
	Name() string

	// Description states what the variant is tuned for.
	Description() string

	// Profile returns the static performance self-description.
	Profile() engine.PerformanceProfile

	// Platforms returns the declared platform compatibility.
	Platforms() engine.PlatformCompatibility

	// CanHandle reports whether the variant applies to the context.
	CanHandle(ictx engine.IterationContext) bool

	// Priority returns self-reported fitness in [0,100]. It is a total
	// function: any context yields a score, never a panic.
	Priority(ictx engine.IterationContext) int

	// ExecuteForEach applies fn to each element in order.
	ExecuteForEach(ctx context.Context, src engine.Sequence, fn engine.Action) error

	// ExecuteMap transforms each element; output order matches input
	// order regardless of internal execution order.
	ExecuteMap(ctx context.Context, src engine.Sequence, fn engine.Transform) ([]any, error)

	// ExecuteFilterMap filters then transforms; output order matches
	// input order.
	ExecuteFilterMap(ctx context.Context, src engine.Sequence, keep engine.Predicate, fn engine.Transform) ([]any, error)

	// ExecuteAsync runs a potentially blocking action per element.
	// Synchronous-only variants fail with ErrUnsupportedOperation
	// immediately instead of degrading to a blocking loop.
	ExecuteAsync(ctx context.Context, src engine.Sequence, fn engine.AsyncAction) error

	// EstimatePerformance projects cost for the context. Never errors.
	EstimatePerformance(ictx engine.IterationContext) engine.PerformanceEstimate

	// EmitCode renders platform source text for the generation context.
	EmitCode(gctx engine.CodeGenContext) (string, error)
}

// base carries the fields and behavior every built-in variant shares.
type base struct {
	id          string
	name        string
	description string
	profile     engine.PerformanceProfile
	platforms   engine.PlatformCompatibility
	weights     priorityWeights
	maxElements int // hard applicability cap; 0 means none
	estimator   *costmodel.Estimator
	emitter     *emit.Emitter
}

func (b *base) ID() string                              { return b.id }
func (b *base) Name() string                            { return b.name }
func (b *base) Description() string                     { return b.description }
func (b *base) Profile() engine.PerformanceProfile      { return b.profile }
func (b *base) Platforms() engine.PlatformCompatibility { return b.platforms }

// canHandle applies the gates shared by every variant: declared platform
// support, the real-time exclusion, element-count sanity, and the
// variant's hard cap when it has one.
func (b *base) canHandle(ictx engine.IterationContext) bool {
	if ictx.ElementCount < 0 {
		return false
	}
	if !b.platforms.Supports(ictx.Platform) {
		return false
	}
	if ictx.Requirements.RealTime && !b.profile.RealTimeSafe {
		return false
	}
	if b.maxElements > 0 && ictx.ElementCount > b.maxElements {
		return false
	}
	return true
}

// Priority delegates to the canonical scoring function with the variant's
// weight set.
func (b *base) Priority(ictx engine.IterationContext) int {
	return scorePriority(b.weights, b.profile, ictx)
}

// EstimatePerformance delegates to the shared estimator so every variant
// prices through the same calibrated model.
func (b *base) EstimatePerformance(ictx engine.IterationContext) engine.PerformanceEstimate {
	return b.estimator.Estimate(b.id, b.profile, ictx)
}

// EmitCode renders through the variant's template set.
func (b *base) EmitCode(gctx engine.CodeGenContext) (string, error) {
	return b.emitter.Render(gctx)
}

// unsupportedAsync is the shared failure for synchronous-only variants.
func unsupportedAsync(id string) error {
	return fmt.Errorf("%w: %s does not support async execution", engine.ErrUnsupportedOperation, id)
}

// priorityWeights parameterizes the canonical scoring function. Exactly
// one weight set exists per variant; there are no per-platform duplicate
// tables.
type priorityWeights struct {
	// base is the starting fitness.
	base int

	// inOptimal is added while the count sits inside the optimal band.
	inOptimal int

	// beyondOptimal is added (typically negative) past the band's upper
	// edge.
	beyondOptimal int

	// realTime is added when the context demands real-time behavior.
	realTime int

	// cpuBound is added for compute-dominated workloads.
	cpuBound int

	// platformAffinity adjusts fitness on specific platforms.
	platformAffinity map[engine.Platform]int

	// largeCount is added at or above largeThreshold elements.
	largeCount     int
	largeThreshold int

	// manyCores is added when four or more cores are available.
	manyCores int
}

// scorePriority is the one scoring function behind every variant's
// Priority. It is total: any context produces a value in [0,100].
func scorePriority(w priorityWeights, profile engine.PerformanceProfile, ictx engine.IterationContext) int {
	score := w.base

	if profile.Optimal.Contains(ictx.ElementCount) {
		score += w.inOptimal
	} else if profile.Optimal.Max > 0 && ictx.ElementCount > profile.Optimal.Max {
		score += w.beyondOptimal
	}

	if ictx.Requirements.RealTime {
		score += w.realTime
	}
	if ictx.CPUBound {
		score += w.cpuBound
	}
	if adj, ok := w.platformAffinity[ictx.Platform]; ok {
		score += adj
	}
	if w.largeThreshold > 0 && ictx.ElementCount >= w.largeThreshold {
		score += w.largeCount
	}
	if w.manyCores != 0 && ictx.Environment.Cores >= 4 {
		score += w.manyCores
	}

	return clampScore(score)
}

// clampScore constrains a fitness value to [0,100].
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
