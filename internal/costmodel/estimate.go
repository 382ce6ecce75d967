package costmodel

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"loopforge/internal/engine"
	"loopforge/internal/logging"
)

// Estimator is the pure cost model: (strategy, context) in, estimate out.
// It never errors, never blocks, and reads one immutable calibration
// snapshot per call, so concurrent selection against it is safe while a
// watcher swaps snapshots underneath.
type Estimator struct {
	cal atomic.Pointer[Calibration]
}

// NewEstimator builds an estimator around the given calibration.
// A nil calibration means the compiled-in defaults.
func NewEstimator(cal *Calibration) *Estimator {
	e := &Estimator{}
	if cal == nil {
		cal = DefaultCalibration()
	}
	e.cal.Store(cal)
	return e
}

// Calibration returns the current snapshot. Callers must treat it as
// read-only.
func (e *Estimator) Calibration() *Calibration {
	return e.cal.Load()
}

// SetCalibration swaps the snapshot. In-flight estimates keep the snapshot
// they already loaded.
func (e *Estimator) SetCalibration(cal *Calibration) {
	if cal == nil {
		return
	}
	e.cal.Store(cal)
	logging.L(logging.CategoryCostModel).Info("calibration snapshot swapped",
		zap.Int("strategies", len(cal.Costs)))
}

// Estimate projects time, memory, and a blended score for one strategy on
// one context. Degenerate contexts (zero elements) yield zero estimates
// with trivially-true requirement checks.
func (e *Estimator) Estimate(id string, profile engine.PerformanceProfile, ictx engine.IterationContext) engine.PerformanceEstimate {
	cal := e.cal.Load()
	cost := cal.CostFor(id)

	n := ictx.ElementCount
	if n <= 0 {
		return engine.PerformanceEstimate{
			Confidence:        cost.Confidence,
			Score:             100,
			MeetsRequirements: true,
		}
	}

	var totalNs float64
	if profile.SupportsParallel {
		totalNs = parallelCostNs(cal, cost, ictx)
	} else {
		totalNs = float64(n) * cost.BaseCostNs * cal.MultiplierFor(id, ictx.Platform)
	}

	estTime := time.Duration(totalNs)
	memMB := float64(n) * cost.PerItemBytes / (1 << 20)

	timeScore := clamp(100-(totalNs/1e6)/cal.Scoring.TimeDivisorMs, 0, 100)
	memScore := clamp(100-memMB/cal.Scoring.MemoryDivisorMB, 0, 100)

	return engine.PerformanceEstimate{
		Time:              estTime,
		MemoryMB:          memMB,
		Confidence:        cost.Confidence,
		Score:             (timeScore + memScore) / 2,
		MeetsRequirements: meetsRequirements(estTime, memMB, ictx.Requirements),
	}
}

// parallelCostNs models fan-out: credited cores are capped and discounted
// for scheduling overhead, and non-CPU-bound work is discounted further
// because it spends its time waiting, not computing.
func parallelCostNs(cal *Calibration, cost StrategyCost, ictx engine.IterationContext) float64 {
	cores := ictx.Environment.Cores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	if cores > cal.Parallel.CoreCap {
		cores = cal.Parallel.CoreCap
	}

	effective := float64(cores) * cal.Parallel.Efficiency
	if effective < 1 {
		effective = 1
	}

	factor := 1.0
	if !ictx.CPUBound {
		factor = cal.Parallel.IOBoundFactor
	}

	return float64(ictx.ElementCount) * cost.BaseCostNs / (effective * factor)
}

func meetsRequirements(t time.Duration, memMB float64, req engine.Requirements) bool {
	if req.MaxTime > 0 && t > req.MaxTime {
		return false
	}
	if req.MaxMemoryMB > 0 && memMB > req.MaxMemoryMB {
		return false
	}
	return true
}

// clamp constrains a value to [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
