package selector

import (
	"sort"

	"go.uber.org/zap"

	"loopforge/internal/engine"
	"loopforge/internal/logging"
	"loopforge/internal/strategy"
)

// Candidate is one applicable strategy with its score and cost estimate
// for a specific iteration context.
type Candidate struct {
	Strategy strategy.Strategy
	Priority int
	Estimate engine.PerformanceEstimate
}

// Selection is the outcome of a selector run: the winner plus the full
// ranked field it beat, best first.
type Selection struct {
	Strategy   strategy.Strategy
	Priority   int
	Estimate   engine.PerformanceEstimate
	Candidates []Candidate
}

// Selector picks the best strategy for an iteration context. Selection is
// deterministic: identical context and registration order always produce
// the same winner.
type Selector struct {
	registry *Registry
}

// New creates a selector over the given registry.
func New(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

// Registry exposes the backing registry.
func (s *Selector) Registry() *Registry {
	return s.registry
}

// Select filters registered strategies by CanHandle, scores the survivors,
// and returns the highest-priority one. Ties go to the earlier-registered
// strategy. When nothing applies the error lists what was registered so
// the caller can see what was ruled out.
func (s *Selector) Select(ictx engine.IterationContext) (*Selection, error) {
	if err := ictx.Validate(); err != nil {
		return nil, err
	}
	defer logging.Timed(logging.CategorySelector, "select")()

	all := s.registry.All()
	candidates := make([]Candidate, 0, len(all))
	for _, st := range all {
		if !st.CanHandle(ictx) {
			continue
		}
		candidates = append(candidates, Candidate{
			Strategy: st,
			Priority: st.Priority(ictx),
			Estimate: st.EstimatePerformance(ictx),
		})
	}

	if len(candidates) == 0 {
		return nil, &engine.NoApplicableStrategyError{
			Platform:     ictx.Platform,
			ElementCount: ictx.ElementCount,
			Registered:   s.registry.IDs(),
		}
	}

	// Stable sort keeps registration order within equal priorities, so the
	// head of the slice is already the tie-broken winner.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	winner := candidates[0]
	logging.L(logging.CategorySelector).Debug("strategy selected",
		zap.String("strategy", winner.Strategy.ID()),
		zap.Int("priority", winner.Priority),
		zap.Int("candidates", len(candidates)),
		zap.Int("elements", ictx.ElementCount),
		zap.String("platform", ictx.Platform.String()))

	return &Selection{
		Strategy:   winner.Strategy,
		Priority:   winner.Priority,
		Estimate:   winner.Estimate,
		Candidates: candidates,
	}, nil
}

// Rank returns every applicable strategy for the context, best first.
func (s *Selector) Rank(ictx engine.IterationContext) ([]Candidate, error) {
	sel, err := s.Select(ictx)
	if err != nil {
		return nil, err
	}
	return sel.Candidates, nil
}
