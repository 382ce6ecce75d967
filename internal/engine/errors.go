package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Engine error taxonomy. Sentinels are matched with errors.Is; callers that
// need diagnostics unwrap to the typed errors below.
var (
	// ErrStrategyNil is returned when registering a nil strategy.
	ErrStrategyNil = errors.New("strategy cannot be nil")

	// ErrStrategyIDEmpty is returned when a strategy has no identifier.
	ErrStrategyIDEmpty = errors.New("strategy id cannot be empty")

	// ErrDuplicateStrategy is returned when registering a duplicate id.
	// Duplicate registration is a configuration error and fails loudly.
	ErrDuplicateStrategy = errors.New("strategy already registered")

	// ErrUnknownStrategy is returned when a lookup misses the registry.
	ErrUnknownStrategy = errors.New("strategy not registered")

	// ErrNoApplicableStrategy is returned when no registered strategy can
	// handle a context. The typed NoApplicableStrategyError carries the
	// platform and element count for diagnostics.
	ErrNoApplicableStrategy = errors.New("no applicable strategy")

	// ErrUnsupportedOperation is returned when a strategy is asked for a
	// capability it does not implement, such as async execution on a
	// synchronous-only strategy.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnknownPlatform is returned for platform names outside the
	// closed enumeration.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrInvalidContext is returned when a context fails validation.
	ErrInvalidContext = errors.New("invalid context")

	// ErrExecutionFailed is the class sentinel for per-item failures
	// aggregated during direct execution.
	ErrExecutionFailed = errors.New("execution failed")
)

// NoApplicableStrategyError reports selection exhaustion: every registered
// strategy rejected the context.
type NoApplicableStrategyError struct {
	// Platform is the context's target platform.
	Platform Platform

	// ElementCount is the context's element count.
	ElementCount int

	// Registered lists the ids that were considered and ruled out.
	Registered []string
}

// Error implements the error interface.
func (e *NoApplicableStrategyError) Error() string {
	return fmt.Sprintf("no applicable strategy for platform %q with %d elements (considered: %s)",
		e.Platform, e.ElementCount, strings.Join(e.Registered, ", "))
}

// Unwrap makes errors.Is(err, ErrNoApplicableStrategy) hold.
func (e *NoApplicableStrategyError) Unwrap() error {
	return ErrNoApplicableStrategy
}

// ItemError is a single element's failure during direct execution.
type ItemError struct {
	// Index is the element's position in the input sequence.
	Index int

	// Err is the failure returned by the caller's function.
	Err error
}

// Error implements the error interface.
func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap exposes the underlying failure.
func (e ItemError) Unwrap() error {
	return e.Err
}

// AggregateExecutionError collects every per-item failure from one
// execution call. Parallel execution never short-circuits on the first
// failure; all failures are gathered and surfaced together, ordered by
// input index.
type AggregateExecutionError struct {
	// Items holds the individual failures in ascending index order.
	Items []ItemError
}

// Error implements the error interface with a bounded summary.
func (e *AggregateExecutionError) Error() string {
	const maxShown = 3
	var b strings.Builder
	fmt.Fprintf(&b, "%d of the items failed", len(e.Items))
	for i, item := range e.Items {
		if i == maxShown {
			fmt.Fprintf(&b, "; and %d more", len(e.Items)-maxShown)
			break
		}
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(item.Error())
	}
	return b.String()
}

// Unwrap exposes the class sentinel and each item failure, so both
// errors.Is(err, ErrExecutionFailed) and errors.Is against an underlying
// cause hold.
func (e *AggregateExecutionError) Unwrap() []error {
	out := make([]error, 0, len(e.Items)+1)
	out = append(out, ErrExecutionFailed)
	for _, item := range e.Items {
		out = append(out, item)
	}
	return out
}
