// Package selector holds the strategy registry and the selection planner:
// filter candidates by applicability, score them, and pick one winner
// deterministically. Registration happens once at start-up; selection is a
// pure read against the immutable registry afterwards.
package selector

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"loopforge/internal/costmodel"
	"loopforge/internal/engine"
	"loopforge/internal/logging"
	"loopforge/internal/strategy"
)

// Registry holds registered strategies. Registration is append-only;
// duplicates are a configuration error. Reads take the shared lock so
// concurrent selection against a started registry never contends.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]strategy.Strategy
	order      []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]strategy.Strategy),
	}
}

// NewDefault creates a registry with the six built-in variants in
// canonical order, all pricing through the given estimator.
func NewDefault(est *costmodel.Estimator) *Registry {
	r := NewRegistry()
	r.MustRegister(strategy.NewIndexedLoop(est))
	r.MustRegister(strategy.NewEnumerationLoop(est))
	r.MustRegister(strategy.NewDeclarativeQuery(est))
	r.MustRegister(strategy.NewParallelQuery(est))
	r.MustRegister(strategy.NewFrameBudgetLoop(est))
	r.MustRegister(strategy.NewLazyStream(est))
	return r
}

// Register adds a strategy. Duplicate ids fail: silently replacing a
// strategy would change selection behind running callers.
func (r *Registry) Register(s strategy.Strategy) error {
	if s == nil {
		return engine.ErrStrategyNil
	}
	if s.ID() == "" {
		return engine.ErrStrategyIDEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[s.ID()]; exists {
		return fmt.Errorf("%w: %s", engine.ErrDuplicateStrategy, s.ID())
	}

	r.strategies[s.ID()] = s
	r.order = append(r.order, s.ID())

	logging.L(logging.CategorySelector).Debug("strategy registered",
		zap.String("id", s.ID()),
		zap.Int("position", len(r.order)))
	return nil
}

// MustRegister registers a strategy and panics on failure. For start-up
// wiring where a failure is a programming error.
func (r *Registry) MustRegister(s strategy.Strategy) {
	if err := r.Register(s); err != nil {
		panic(fmt.Sprintf("failed to register strategy: %v", err))
	}
}

// Get retrieves a strategy by id.
func (r *Registry) Get(id string) (strategy.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownStrategy, id)
	}
	return s, nil
}

// Has reports whether an id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[id]
	return ok
}

// All returns the strategies in registration order.
func (r *Registry) All() []strategy.Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]strategy.Strategy, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.strategies[id])
	}
	return out
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered strategies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
