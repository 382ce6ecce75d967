package engine

import (
	"context"
	"iter"
)

// Action is applied to each element for its side effects.
type Action func(item any) error

// Transform maps one element to one output element.
type Transform func(item any) (any, error)

// Predicate decides whether an element survives filtering.
type Predicate func(item any) bool

// AsyncAction is an action that may block on external work. Strategies
// without a true asynchronous path reject it outright instead of running
// it inline.
type AsyncAction func(ctx context.Context, item any) error

// Sequence is the element source abstraction for direct execution.
// Implementations must be safe for repeated traversal.
type Sequence interface {
	// Len returns the number of elements. Always known up front;
	// unbounded sources are out of scope.
	Len() int

	// Seq iterates the elements in order.
	Seq() iter.Seq[any]
}

// Indexable is the positional-access capability. Strategies that need
// positional access assert it once per call; sources without it make the
// strategy fall back to a sequential scan.
type Indexable interface {
	Sequence

	// At returns the element at position i. Callers guarantee 0 <= i < Len().
	At(i int) any
}

type sliceSequence struct {
	items []any
}

func (s sliceSequence) Len() int { return len(s.items) }

func (s sliceSequence) At(i int) any { return s.items[i] }

func (s sliceSequence) Seq() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, it := range s.items {
			if !yield(it) {
				return
			}
		}
	}
}

// FromSlice wraps a slice as an indexable sequence. The slice is not
// copied; callers must not mutate it while execution is in flight.
func FromSlice(items []any) Indexable {
	return sliceSequence{items: items}
}

type generatedSequence struct {
	n  int
	fn func(i int) any
}

func (g generatedSequence) Len() int { return g.n }

func (g generatedSequence) At(i int) any { return g.fn(i) }

func (g generatedSequence) Seq() iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := 0; i < g.n; i++ {
			if !yield(g.fn(i)) {
				return
			}
		}
	}
}

// Generate builds an indexable synthetic sequence of n elements produced
// by fn. Used by calibration benchmarks and tests.
func Generate(n int, fn func(i int) any) Indexable {
	if n < 0 {
		n = 0
	}
	return generatedSequence{n: n, fn: fn}
}

type streamSequence struct {
	n   int
	seq iter.Seq[any]
}

func (s streamSequence) Len() int { return s.n }

func (s streamSequence) Seq() iter.Seq[any] { return s.seq }

// FromSeq wraps a re-iterable stream with a known length as a sequence
// without positional access. Strategies requiring positional access will
// degrade to a sequential scan over it.
func FromSeq(n int, seq iter.Seq[any]) Sequence {
	if n < 0 {
		n = 0
	}
	return streamSequence{n: n, seq: seq}
}

// Collect materializes a sequence into a fresh slice.
func Collect(s Sequence) []any {
	out := make([]any, 0, s.Len())
	for it := range s.Seq() {
		out = append(out, it)
	}
	return out
}
