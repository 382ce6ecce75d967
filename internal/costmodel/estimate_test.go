package costmodel

import (
	"testing"
	"time"

	"loopforge/internal/engine"
)

func serverContext(count int, cores int, cpuBound bool) engine.IterationContext {
	return engine.IterationContext{
		ElementCount: count,
		Platform:     engine.PlatformServer,
		CPUBound:     cpuBound,
		Environment:  engine.Environment{Cores: cores},
	}
}

func TestEstimateDegenerateCount(t *testing.T) {
	est := NewEstimator(nil)
	profile := engine.PerformanceProfile{}

	for _, id := range []string{engine.StrategyIndexedLoop, engine.StrategyParallelQuery, "never-registered"} {
		got := est.Estimate(id, profile, serverContext(0, 8, true))
		if got.Time != 0 {
			t.Errorf("%s: zero elements should estimate zero time, got %v", id, got.Time)
		}
		if got.MemoryMB != 0 {
			t.Errorf("%s: zero elements should estimate zero memory, got %v", id, got.MemoryMB)
		}
		if !got.MeetsRequirements {
			t.Errorf("%s: zero elements should trivially meet requirements", id)
		}
	}
}

func TestEstimateMonotonicInElementCount(t *testing.T) {
	est := NewEstimator(nil)
	counts := []int{0, 1, 10, 500, 10_000, 200_000, 5_000_000}

	profiles := map[string]engine.PerformanceProfile{
		engine.StrategyIndexedLoop:      {},
		engine.StrategyDeclarativeQuery: {},
		engine.StrategyParallelQuery:    {SupportsParallel: true},
		engine.StrategyLazyStream:       {},
	}

	for id, profile := range profiles {
		t.Run(id, func(t *testing.T) {
			var prevTime time.Duration
			var prevMem float64
			for _, n := range counts {
				got := est.Estimate(id, profile, serverContext(n, 8, true))
				if got.Time < prevTime {
					t.Errorf("time decreased at count %d: %v < %v", n, got.Time, prevTime)
				}
				if got.MemoryMB < prevMem {
					t.Errorf("memory decreased at count %d: %v < %v", n, got.MemoryMB, prevMem)
				}
				prevTime, prevMem = got.Time, got.MemoryMB
			}
		})
	}
}

func TestEstimateParallelDiscountsIOBound(t *testing.T) {
	est := NewEstimator(nil)
	profile := engine.PerformanceProfile{SupportsParallel: true}

	cpu := est.Estimate(engine.StrategyParallelQuery, profile, serverContext(100_000, 8, true))
	io := est.Estimate(engine.StrategyParallelQuery, profile, serverContext(100_000, 8, false))

	if io.Time <= cpu.Time {
		t.Errorf("I/O-bound work should be estimated slower than CPU-bound: io=%v cpu=%v", io.Time, cpu.Time)
	}
}

func TestEstimateParallelCoreCap(t *testing.T) {
	est := NewEstimator(nil)
	profile := engine.PerformanceProfile{SupportsParallel: true}

	eight := est.Estimate(engine.StrategyParallelQuery, profile, serverContext(100_000, 8, true))
	thirtyTwo := est.Estimate(engine.StrategyParallelQuery, profile, serverContext(100_000, 32, true))

	if thirtyTwo.Time != eight.Time {
		t.Errorf("cores past the cap should not change the estimate: 8=%v 32=%v", eight.Time, thirtyTwo.Time)
	}

	four := est.Estimate(engine.StrategyParallelQuery, profile, serverContext(100_000, 4, true))
	if four.Time <= eight.Time {
		t.Errorf("fewer cores should estimate slower: 4=%v 8=%v", four.Time, eight.Time)
	}
}

func TestEstimateParallelBeatsSequentialAtScale(t *testing.T) {
	est := NewEstimator(nil)

	seq := est.Estimate(engine.StrategyIndexedLoop, engine.PerformanceProfile{}, serverContext(200_000, 8, true))
	par := est.Estimate(engine.StrategyParallelQuery, engine.PerformanceProfile{SupportsParallel: true}, serverContext(200_000, 8, true))

	if par.Time >= seq.Time {
		t.Errorf("parallel should beat sequential at 200k CPU-bound elements: par=%v seq=%v", par.Time, seq.Time)
	}
}

func TestEstimateMeetsRequirements(t *testing.T) {
	est := NewEstimator(nil)
	profile := engine.PerformanceProfile{}

	ictx := serverContext(1_000_000, 8, true)
	ictx.Requirements.MaxTime = time.Nanosecond
	got := est.Estimate(engine.StrategyDeclarativeQuery, profile, ictx)
	if got.MeetsRequirements {
		t.Error("a nanosecond ceiling should not be met at a million elements")
	}

	ictx.Requirements.MaxTime = time.Hour
	ictx.Requirements.MaxMemoryMB = 100_000
	got = est.Estimate(engine.StrategyDeclarativeQuery, profile, ictx)
	if !got.MeetsRequirements {
		t.Errorf("generous ceilings should be met, got %+v", got)
	}

	// Unconstrained axes are trivially met.
	ictx.Requirements = engine.Requirements{}
	got = est.Estimate(engine.StrategyDeclarativeQuery, profile, ictx)
	if !got.MeetsRequirements {
		t.Error("unconstrained requirements should always be met")
	}
}

func TestEstimateConfidenceBand(t *testing.T) {
	est := NewEstimator(nil)
	cal := est.Calibration()

	for id, cost := range cal.Costs {
		if cost.Confidence < 0.8 || cost.Confidence > 0.95 {
			t.Errorf("%s: confidence %v outside the calibrated band [0.8,0.95]", id, cost.Confidence)
		}
		got := est.Estimate(id, engine.PerformanceProfile{}, serverContext(100, 4, false))
		if got.Confidence != cost.Confidence {
			t.Errorf("%s: estimate confidence %v should equal calibrated %v", id, got.Confidence, cost.Confidence)
		}
	}
}

func TestEstimateScoreStaysInRange(t *testing.T) {
	est := NewEstimator(nil)

	for _, n := range []int{0, 1, 1_000, 100_000_000} {
		got := est.Estimate(engine.StrategyDeclarativeQuery, engine.PerformanceProfile{}, serverContext(n, 8, true))
		if got.Score < 0 || got.Score > 100 {
			t.Errorf("score %v outside [0,100] at count %d", got.Score, n)
		}
	}
}

func TestEstimateDeterministic(t *testing.T) {
	est := NewEstimator(nil)
	ictx := serverContext(12_345, 6, true)
	profile := engine.PerformanceProfile{SupportsParallel: true}

	first := est.Estimate(engine.StrategyParallelQuery, profile, ictx)
	for i := 0; i < 5; i++ {
		again := est.Estimate(engine.StrategyParallelQuery, profile, ictx)
		if again != first {
			t.Fatalf("estimate changed between identical calls: %+v vs %+v", first, again)
		}
	}
}

func TestSetCalibrationSwapsSnapshot(t *testing.T) {
	est := NewEstimator(nil)
	before := est.Estimate(engine.StrategyIndexedLoop, engine.PerformanceProfile{}, serverContext(1000, 4, true))

	tuned := DefaultCalibration().Clone()
	cost := tuned.Costs[engine.StrategyIndexedLoop]
	cost.BaseCostNs *= 100
	tuned.Costs[engine.StrategyIndexedLoop] = cost
	est.SetCalibration(tuned)

	after := est.Estimate(engine.StrategyIndexedLoop, engine.PerformanceProfile{}, serverContext(1000, 4, true))
	if after.Time <= before.Time {
		t.Errorf("swapped calibration should raise the estimate: before=%v after=%v", before.Time, after.Time)
	}
}
