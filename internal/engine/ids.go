package engine

// Canonical strategy identifiers. The calibration tables and the default
// registry key on these; external callers may register additional ids.
const (
	// StrategyIndexedLoop is the positional sequential loop.
	StrategyIndexedLoop = "indexed-loop"

	// StrategyEnumerationLoop is the generic sequential enumeration.
	StrategyEnumerationLoop = "enumeration-loop"

	// StrategyDeclarativeQuery is the composition-style map/filter pipeline.
	StrategyDeclarativeQuery = "declarative-query"

	// StrategyParallelQuery is the multicore fan-out strategy.
	StrategyParallelQuery = "parallel-query"

	// StrategyFrameBudgetLoop is the game-engine loop tuned for frame budgets.
	StrategyFrameBudgetLoop = "frame-budget-loop"

	// StrategyLazyStream is the memory-constrained lazy producer.
	StrategyLazyStream = "lazy-stream"
)
