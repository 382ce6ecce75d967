// Package costmodel implements the performance estimator and its tunable
// calibration. All constants the estimator consumes (per-item costs,
// platform multipliers, parallel efficiency, score normalization) live in
// a Calibration value: defaults are compiled in, and deployments may
// override them from a YAML file, or regenerate them empirically with the
// benchmark runner in this package.
package costmodel

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"loopforge/internal/engine"
)

// StrategyCost holds the per-strategy calibration constants.
type StrategyCost struct {
	// BaseCostNs is the per-item execution cost in nanoseconds before
	// platform adjustment.
	BaseCostNs float64 `yaml:"base_cost_ns"`

	// PerItemBytes is the per-item working-set overhead in bytes.
	PerItemBytes float64 `yaml:"per_item_bytes"`

	// Confidence is the calibration quality for this strategy, in [0,1].
	Confidence float64 `yaml:"confidence"`
}

// ParallelTuning holds the fan-out efficiency model.
type ParallelTuning struct {
	// CoreCap bounds how many cores the model credits. Past this point
	// coordination overhead eats the gains.
	CoreCap int `yaml:"core_cap"`

	// Efficiency discounts the credited cores for scheduling overhead.
	Efficiency float64 `yaml:"efficiency"`

	// IOBoundFactor discounts parallel speedup for workloads that are not
	// CPU-bound. I/O-bound work parallelizes poorly.
	IOBoundFactor float64 `yaml:"io_bound_factor"`
}

// ScoringTuning normalizes raw estimates onto the 0-100 score scale.
type ScoringTuning struct {
	// TimeDivisorMs is how many milliseconds cost one score point.
	TimeDivisorMs float64 `yaml:"time_divisor_ms"`

	// MemoryDivisorMB is how many megabytes cost one score point.
	MemoryDivisorMB float64 `yaml:"memory_divisor_mb"`
}

// Calibration is the full tunable constant set for the estimator.
// Values are heuristic; ship defaults are chosen to preserve the relative
// ordering between strategies, and `forge calibrate` re-derives them from
// measurements on the host.
type Calibration struct {
	// Costs maps strategy id to its cost constants.
	Costs map[string]StrategyCost `yaml:"costs"`

	// Multipliers maps strategy id to platform to a relative overhead
	// factor. Missing entries default to 1.0.
	Multipliers map[string]map[string]float64 `yaml:"multipliers"`

	// Parallel tunes the fan-out efficiency model.
	Parallel ParallelTuning `yaml:"parallel"`

	// Scoring tunes score normalization.
	Scoring ScoringTuning `yaml:"scoring"`
}

// DefaultCalibration returns the compiled-in constant set.
func DefaultCalibration() *Calibration {
	return &Calibration{
		Costs: map[string]StrategyCost{
			engine.StrategyIndexedLoop: {
				BaseCostNs:   2.0,
				PerItemBytes: 2,
				Confidence:   0.95,
			},
			engine.StrategyEnumerationLoop: {
				BaseCostNs:   3.0,
				PerItemBytes: 8,
				Confidence:   0.92,
			},
			// Composition pipelines pay delegate dispatch per item,
			// several times the indexed cost.
			engine.StrategyDeclarativeQuery: {
				BaseCostNs:   12.0,
				PerItemBytes: 48,
				Confidence:   0.85,
			},
			engine.StrategyParallelQuery: {
				BaseCostNs:   2.5,
				PerItemBytes: 64,
				Confidence:   0.80,
			},
			engine.StrategyFrameBudgetLoop: {
				BaseCostNs:   1.8,
				PerItemBytes: 1,
				Confidence:   0.90,
			},
			engine.StrategyLazyStream: {
				BaseCostNs:   6.0,
				PerItemBytes: 4,
				Confidence:   0.82,
			},
		},
		Multipliers: map[string]map[string]float64{
			engine.StrategyIndexedLoop: {
				string(engine.PlatformBrowser): 2.0,
				string(engine.PlatformMobile):  1.4,
				string(engine.PlatformServer):  0.9,
				string(engine.PlatformUnity):   1.1,
			},
			engine.StrategyEnumerationLoop: {
				string(engine.PlatformBrowser): 2.5,
				string(engine.PlatformMobile):  1.4,
				string(engine.PlatformServer):  0.9,
				string(engine.PlatformUnity):   1.2,
			},
			// Closure-heavy pipelines degrade hardest on script targets.
			engine.StrategyDeclarativeQuery: {
				string(engine.PlatformBrowser): 3.0,
				string(engine.PlatformMobile):  1.5,
				string(engine.PlatformServer):  0.9,
			},
			engine.StrategyFrameBudgetLoop: {
				string(engine.PlatformUnity): 1.0,
			},
			engine.StrategyLazyStream: {
				string(engine.PlatformBrowser): 2.2,
				string(engine.PlatformMobile):  1.3,
			},
		},
		Parallel: ParallelTuning{
			CoreCap:       8,
			Efficiency:    0.7,
			IOBoundFactor: 0.3,
		},
		Scoring: ScoringTuning{
			TimeDivisorMs:   0.05,
			MemoryDivisorMB: 0.5,
		},
	}
}

// LoadCalibration reads a calibration file, layered over the defaults so a
// partial file can tune individual constants. A missing file returns the
// defaults unchanged.
func LoadCalibration(path string) (*Calibration, error) {
	cal := DefaultCalibration()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cal, nil
		}
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	if err := yaml.Unmarshal(data, cal); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

// Save writes the calibration to path, creating parent directories.
func (c *Calibration) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

// Validate checks the constants for values the estimator cannot work with.
func (c *Calibration) Validate() error {
	for id, cost := range c.Costs {
		if cost.BaseCostNs < 0 {
			return fmt.Errorf("calibration: %s: base cost cannot be negative", id)
		}
		if cost.PerItemBytes < 0 {
			return fmt.Errorf("calibration: %s: per-item bytes cannot be negative", id)
		}
		if cost.Confidence < 0 || cost.Confidence > 1 {
			return fmt.Errorf("calibration: %s: confidence %v outside [0,1]", id, cost.Confidence)
		}
	}
	if c.Parallel.CoreCap < 1 {
		return fmt.Errorf("calibration: parallel core cap must be at least 1, got %d", c.Parallel.CoreCap)
	}
	if c.Parallel.Efficiency <= 0 || c.Parallel.Efficiency > 1 {
		return fmt.Errorf("calibration: parallel efficiency %v outside (0,1]", c.Parallel.Efficiency)
	}
	if c.Parallel.IOBoundFactor <= 0 || c.Parallel.IOBoundFactor > 1 {
		return fmt.Errorf("calibration: io-bound factor %v outside (0,1]", c.Parallel.IOBoundFactor)
	}
	if c.Scoring.TimeDivisorMs <= 0 {
		return fmt.Errorf("calibration: time divisor must be positive, got %v", c.Scoring.TimeDivisorMs)
	}
	if c.Scoring.MemoryDivisorMB <= 0 {
		return fmt.Errorf("calibration: memory divisor must be positive, got %v", c.Scoring.MemoryDivisorMB)
	}
	return nil
}

// CostFor returns the cost constants for a strategy id, falling back to
// conservative generic constants for ids absent from the table.
func (c *Calibration) CostFor(id string) StrategyCost {
	if cost, ok := c.Costs[id]; ok {
		return cost
	}
	return StrategyCost{BaseCostNs: 5.0, PerItemBytes: 16, Confidence: 0.8}
}

// MultiplierFor returns the platform overhead factor for a strategy,
// defaulting to 1.0 when no entry exists.
func (c *Calibration) MultiplierFor(id string, platform engine.Platform) float64 {
	if byPlatform, ok := c.Multipliers[id]; ok {
		if m, ok := byPlatform[string(platform)]; ok && m > 0 {
			return m
		}
	}
	return 1.0
}

// Clone returns a deep copy so a snapshot can be tweaked without touching
// the original.
func (c *Calibration) Clone() *Calibration {
	out := &Calibration{
		Costs:       make(map[string]StrategyCost, len(c.Costs)),
		Multipliers: make(map[string]map[string]float64, len(c.Multipliers)),
		Parallel:    c.Parallel,
		Scoring:     c.Scoring,
	}
	for id, cost := range c.Costs {
		out.Costs[id] = cost
	}
	for id, byPlatform := range c.Multipliers {
		inner := make(map[string]float64, len(byPlatform))
		for p, m := range byPlatform {
			inner[p] = m
		}
		out.Multipliers[id] = inner
	}
	return out
}
