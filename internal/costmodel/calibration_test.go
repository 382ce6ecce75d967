package costmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"loopforge/internal/engine"
)

func TestDefaultCalibrationValid(t *testing.T) {
	if err := DefaultCalibration().Validate(); err != nil {
		t.Fatalf("default calibration must validate: %v", err)
	}
}

func TestDefaultCalibrationOrdering(t *testing.T) {
	cal := DefaultCalibration()

	indexed := cal.CostFor(engine.StrategyIndexedLoop)
	declarative := cal.CostFor(engine.StrategyDeclarativeQuery)
	parallel := cal.CostFor(engine.StrategyParallelQuery)

	if declarative.BaseCostNs < 3*indexed.BaseCostNs {
		t.Errorf("declarative per-item cost should be several times the indexed cost: %v vs %v",
			declarative.BaseCostNs, indexed.BaseCostNs)
	}
	if indexed.PerItemBytes >= declarative.PerItemBytes {
		t.Errorf("indexed memory overhead should be below declarative: %v vs %v",
			indexed.PerItemBytes, declarative.PerItemBytes)
	}
	if parallel.PerItemBytes <= indexed.PerItemBytes {
		t.Errorf("parallel memory overhead should exceed indexed: %v vs %v",
			parallel.PerItemBytes, indexed.PerItemBytes)
	}

	// Script targets cost more than managed targets across the board.
	for _, id := range []string{engine.StrategyIndexedLoop, engine.StrategyEnumerationLoop, engine.StrategyDeclarativeQuery} {
		browser := cal.MultiplierFor(id, engine.PlatformBrowser)
		managed := cal.MultiplierFor(id, engine.PlatformDotnet)
		if browser <= managed {
			t.Errorf("%s: browser multiplier %v should exceed managed %v", id, browser, managed)
		}
	}
}

func TestCalibrationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.yaml")

	want := DefaultCalibration().Clone()
	cost := want.Costs[engine.StrategyLazyStream]
	cost.BaseCostNs = 7.25
	want.Costs[engine.StrategyLazyStream] = cost

	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("calibration round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCalibrationMissingFileReturnsDefaults(t *testing.T) {
	got, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if diff := cmp.Diff(DefaultCalibration(), got); diff != "" {
		t.Errorf("missing file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestLoadCalibrationPartialOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")

	partial := "costs:\n  indexed-loop:\n    base_cost_ns: 9.5\n    per_item_bytes: 3\n    confidence: 0.9\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}

	if got.CostFor(engine.StrategyIndexedLoop).BaseCostNs != 9.5 {
		t.Errorf("overridden cost not applied: %+v", got.CostFor(engine.StrategyIndexedLoop))
	}
	// Untouched entries keep their defaults.
	def := DefaultCalibration()
	if got.CostFor(engine.StrategyParallelQuery) != def.CostFor(engine.StrategyParallelQuery) {
		t.Error("partial file should not disturb other strategies")
	}
	if got.Parallel != def.Parallel {
		t.Error("partial file should not disturb parallel tuning")
	}
}

func TestLoadCalibrationRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	bad := "costs:\n  indexed-loop:\n    base_cost_ns: 2\n    per_item_bytes: 2\n    confidence: 7\n"
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCalibration(path); err == nil {
		t.Fatal("confidence outside [0,1] should fail validation")
	}
}

func TestMultiplierForDefaults(t *testing.T) {
	cal := DefaultCalibration()

	if got := cal.MultiplierFor("never-registered", engine.PlatformBrowser); got != 1.0 {
		t.Errorf("unknown strategy should default to 1.0, got %v", got)
	}
	if got := cal.MultiplierFor(engine.StrategyIndexedLoop, engine.PlatformDotnet); got != 1.0 {
		t.Errorf("platform without an entry should default to 1.0, got %v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := DefaultCalibration()
	clone := original.Clone()

	cost := clone.Costs[engine.StrategyIndexedLoop]
	cost.BaseCostNs = 999
	clone.Costs[engine.StrategyIndexedLoop] = cost
	clone.Multipliers[engine.StrategyIndexedLoop][string(engine.PlatformBrowser)] = 42

	if original.Costs[engine.StrategyIndexedLoop].BaseCostNs == 999 {
		t.Error("clone should not share the cost map")
	}
	if original.Multipliers[engine.StrategyIndexedLoop][string(engine.PlatformBrowser)] == 42 {
		t.Error("clone should not share the multiplier maps")
	}
}
