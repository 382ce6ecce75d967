package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNoApplicableStrategyErrorCarriesDiagnostics(t *testing.T) {
	err := &NoApplicableStrategyError{
		Platform:     PlatformUnity,
		ElementCount: 42,
		Registered:   []string{"indexed-loop", "lazy-stream"},
	}

	if !errors.Is(err, ErrNoApplicableStrategy) {
		t.Error("typed error should match ErrNoApplicableStrategy")
	}

	msg := err.Error()
	if !strings.Contains(msg, "unity") {
		t.Errorf("message should name the platform: %q", msg)
	}
	if !strings.Contains(msg, "42") {
		t.Errorf("message should carry the element count: %q", msg)
	}
	if !strings.Contains(msg, "lazy-stream") {
		t.Errorf("message should list the ruled-out ids: %q", msg)
	}
}

func TestAggregateExecutionError(t *testing.T) {
	cause := errors.New("boom")
	agg := &AggregateExecutionError{
		Items: []ItemError{
			{Index: 2, Err: cause},
			{Index: 7, Err: errors.New("other")},
		},
	}

	if !errors.Is(agg, ErrExecutionFailed) {
		t.Error("aggregate should match ErrExecutionFailed")
	}
	if !errors.Is(agg, cause) {
		t.Error("aggregate should match an underlying item cause")
	}

	msg := agg.Error()
	if !strings.Contains(msg, "2 of the items failed") {
		t.Errorf("message should state the failure count: %q", msg)
	}
	if !strings.Contains(msg, "item 2") {
		t.Errorf("message should include the first item index: %q", msg)
	}
}

func TestAggregateExecutionErrorBoundsSummary(t *testing.T) {
	agg := &AggregateExecutionError{}
	for i := 0; i < 10; i++ {
		agg.Items = append(agg.Items, ItemError{Index: i, Err: fmt.Errorf("fail %d", i)})
	}

	msg := agg.Error()
	if !strings.Contains(msg, "and 7 more") {
		t.Errorf("long aggregates should be summarized, got %q", msg)
	}
}

func TestWrappedSentinelsSurviveFmtErrorf(t *testing.T) {
	err := fmt.Errorf("%w: indexed-loop", ErrDuplicateStrategy)
	if !errors.Is(err, ErrDuplicateStrategy) {
		t.Error("wrapped duplicate-strategy error should match sentinel")
	}

	err = fmt.Errorf("%w: declarative-query does not support async execution", ErrUnsupportedOperation)
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Error("wrapped unsupported-operation error should match sentinel")
	}
}

func TestContextValidate(t *testing.T) {
	good := IterationContext{ElementCount: 10, Platform: PlatformServer}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid context rejected: %v", err)
	}

	negative := IterationContext{ElementCount: -1, Platform: PlatformServer}
	if err := negative.Validate(); !errors.Is(err, ErrInvalidContext) {
		t.Errorf("negative count should fail with ErrInvalidContext, got %v", err)
	}

	badPlatform := IterationContext{ElementCount: 1, Platform: Platform("vax")}
	if err := badPlatform.Validate(); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("unknown platform should fail with ErrUnknownPlatform, got %v", err)
	}
}
