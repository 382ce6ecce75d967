package engine

import (
	"fmt"
	"time"
)

// Requirements captures the hard constraints a workload places on the
// chosen strategy. Zero values mean "unconstrained" for that axis.
type Requirements struct {
	// MaxTime is the execution-time ceiling. Zero means no ceiling.
	MaxTime time.Duration

	// MaxMemoryMB is the working-set ceiling in megabytes. Zero means no ceiling.
	MaxMemoryMB float64

	// RealTime marks frame-budgeted workloads. Strategies whose profile is
	// not real-time safe must not be selected when this is set.
	RealTime bool
}

// Environment describes the machine the workload runs on.
type Environment struct {
	// Family is a free-form runtime family label (informational only).
	Family string

	// Cores is the number of CPU cores available to the workload.
	// Values <= 0 mean "resolve from the host at estimate time".
	Cores int
}

// IterationContext is the workload description driving selection and
// estimation. It is a plain value: selection never mutates it and never
// retains it across calls.
type IterationContext struct {
	// ElementCount is the expected number of elements. Never negative.
	ElementCount int

	// Platform is the target execution environment.
	Platform Platform

	// CPUBound marks compute-dominated workloads. I/O-bound work
	// parallelizes poorly and is discounted by the estimator.
	CPUBound bool

	// Requirements are the caller's hard constraints.
	Requirements Requirements

	// Environment describes the host machine.
	Environment Environment
}

// Validate checks structural invariants on the context.
func (c IterationContext) Validate() error {
	if c.ElementCount < 0 {
		return fmt.Errorf("%w: element count %d is negative", ErrInvalidContext, c.ElementCount)
	}
	if !c.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, c.Platform)
	}
	return nil
}

// String renders a compact one-line summary used in logs and errors.
func (c IterationContext) String() string {
	return fmt.Sprintf("count=%d platform=%s cpuBound=%t realTime=%t cores=%d",
		c.ElementCount, c.Platform, c.CPUBound, c.Requirements.RealTime, c.Environment.Cores)
}

// CodeGenContext carries everything code emission needs. The Action field
// is an opaque payload: the emitter substitutes it verbatim and never
// parses, validates, or rewrites it.
type CodeGenContext struct {
	// Collection is the name of the collection variable in emitted code.
	Collection string

	// Item is the name bound to each element in emitted code.
	Item string

	// Action is the caller-supplied loop-body fragment. Opaque.
	Action string

	// Platform selects the emission dialect.
	Platform Platform

	// NullGuard wraps the loop in a null/undefined check when set.
	NullGuard bool

	// BoundsCheck adds an explicit bounds assertion for positional
	// strategies when set. Ignored by non-positional strategies.
	BoundsCheck bool
}

// Validate checks that the substitution identifiers are present.
// The action fragment is deliberately not inspected.
func (g CodeGenContext) Validate() error {
	if g.Collection == "" {
		return fmt.Errorf("%w: collection name is empty", ErrInvalidContext)
	}
	if g.Item == "" {
		return fmt.Errorf("%w: item name is empty", ErrInvalidContext)
	}
	if !g.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, g.Platform)
	}
	return nil
}
