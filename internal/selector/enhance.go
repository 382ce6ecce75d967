package selector

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"loopforge/internal/engine"
	"loopforge/internal/logging"
)

// shellSignatures maps loop-shell fingerprints back to the strategy that
// emits them. Order matters: more specific shells come first, because the
// frame-budget loop contains an indexed loop and the lazy browser shell
// contains a for...of.
var shellSignatures = []struct {
	id      string
	markers []string
}{
	{engine.StrategyFrameBudgetLoop, []string{"for (int i = 0, count =", "i < count; i++"}},
	{engine.StrategyParallelQuery, []string{"Parallel.ForEach(", ".AsParallel()"}},
	{engine.StrategyLazyStream, []string{"yield return", "function*"}},
	{engine.StrategyDeclarativeQuery, []string{".ToList().ForEach(", ".forEach(("}},
	{engine.StrategyIndexedLoop, []string{"for (int i = 0;", "for (let i = 0;"}},
	{engine.StrategyEnumerationLoop, []string{"foreach (var ", "for (const "}},
}

// DetectShell identifies which strategy produced a code fragment by its
// loop shell. Returns the empty string when no known shell matches. The
// scan is textual, so fragments that merely mention a marker inside their
// action body can misidentify; enhancement treats the result as a hint,
// not ground truth.
func DetectShell(code string) string {
	for _, sig := range shellSignatures {
		for _, marker := range sig.markers {
			if strings.Contains(code, marker) {
				return sig.id
			}
		}
	}
	return ""
}

// Enhancement is the outcome of an enhancement pass over an existing
// fragment. When Changed is false, Code echoes the input untouched.
type Enhancement struct {
	DetectedID string
	WinnerID   string
	Priority   int
	Code       string
	Changed    bool
	Reason     string
}

// Enhance re-runs selection for the context an existing fragment serves
// and rewrites the fragment when a different strategy wins. A fragment
// already shaped like the winner passes through unchanged, which makes
// the operation idempotent.
func (s *Selector) Enhance(existing string, ictx engine.IterationContext, gctx engine.CodeGenContext) (*Enhancement, error) {
	sel, err := s.Select(ictx)
	if err != nil {
		return nil, err
	}

	detected := DetectShell(existing)
	winnerID := sel.Strategy.ID()

	if detected == winnerID {
		return &Enhancement{
			DetectedID: detected,
			WinnerID:   winnerID,
			Priority:   sel.Priority,
			Code:       existing,
			Changed:    false,
			Reason:     fmt.Sprintf("fragment already uses %s", winnerID),
		}, nil
	}

	code, err := sel.Strategy.EmitCode(gctx)
	if err != nil {
		return nil, fmt.Errorf("emit replacement for %s: %w", winnerID, err)
	}

	reason := fmt.Sprintf("%s scored %d for this context", winnerID, sel.Priority)
	if detected != "" {
		reason = fmt.Sprintf("%s scored %d, replacing detected %s", winnerID, sel.Priority, detected)
	}

	logging.L(logging.CategorySelector).Info("fragment enhanced",
		zap.String("detected", detected),
		zap.String("winner", winnerID),
		zap.Int("priority", sel.Priority))

	return &Enhancement{
		DetectedID: detected,
		WinnerID:   winnerID,
		Priority:   sel.Priority,
		Code:       code,
		Changed:    true,
		Reason:     reason,
	}, nil
}
