package engine

import "time"

// Rating is a qualitative resource rating used in strategy profiles.
type Rating int

const (
	// RatingLow marks poor efficiency or scalability.
	RatingLow Rating = iota

	// RatingMedium marks acceptable middle-ground behavior.
	RatingMedium

	// RatingHigh marks strong behavior under load.
	RatingHigh

	// RatingExcellent marks best-in-class behavior.
	RatingExcellent
)

// String returns the string representation of Rating.
func (r Rating) String() string {
	switch r {
	case RatingLow:
		return "low"
	case RatingMedium:
		return "medium"
	case RatingHigh:
		return "high"
	case RatingExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// OptimalRange is the element-count band a strategy is tuned for.
// Max of zero means the band is unbounded above.
type OptimalRange struct {
	Min int
	Max int
}

// Contains reports whether n falls inside the band.
func (r OptimalRange) Contains(n int) bool {
	if n < r.Min {
		return false
	}
	if r.Max > 0 && n > r.Max {
		return false
	}
	return true
}

// PerformanceProfile is a strategy's static self-description. Profiles are
// immutable after construction; selection reads them, never writes.
type PerformanceProfile struct {
	// CPUEfficiency rates per-item compute overhead.
	CPUEfficiency Rating

	// MemoryEfficiency rates per-item allocation behavior.
	MemoryEfficiency Rating

	// Scalability rates behavior as the element count grows.
	Scalability Rating

	// Optimal is the element-count band the strategy is tuned for.
	Optimal OptimalRange

	// SupportsParallel marks strategies that fan work across cores.
	SupportsParallel bool

	// RequiresPositional marks strategies needing indexed element access.
	RequiresPositional bool

	// SupportsAsync marks strategies with a true asynchronous path.
	SupportsAsync bool

	// RealTimeSafe marks strategies acceptable under frame budgets.
	RealTimeSafe bool
}

// PlatformCompatibility is the set of platforms a strategy supports.
// The zero value (no entries) means "all platforms".
type PlatformCompatibility struct {
	platforms map[Platform]struct{}
}

// SupportAll returns a compatibility set matching every platform.
func SupportAll() PlatformCompatibility {
	return PlatformCompatibility{}
}

// Support returns a compatibility set restricted to the given platforms.
func Support(platforms ...Platform) PlatformCompatibility {
	set := make(map[Platform]struct{}, len(platforms))
	for _, p := range platforms {
		set[p] = struct{}{}
	}
	return PlatformCompatibility{platforms: set}
}

// Supports reports whether platform p is in the set.
func (c PlatformCompatibility) Supports(p Platform) bool {
	if len(c.platforms) == 0 {
		return true
	}
	_, ok := c.platforms[p]
	return ok
}

// List returns the restricted platforms in canonical order, or nil when the
// set matches everything.
func (c PlatformCompatibility) List() []Platform {
	if len(c.platforms) == 0 {
		return nil
	}
	out := make([]Platform, 0, len(c.platforms))
	for _, p := range AllPlatforms() {
		if _, ok := c.platforms[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PerformanceEstimate is the cost model's projection for one strategy on
// one context. Estimates are ephemeral: built per selection call, compared,
// then discarded.
type PerformanceEstimate struct {
	// Time is the projected wall-clock execution time.
	Time time.Duration

	// MemoryMB is the projected peak working set in megabytes.
	MemoryMB float64

	// Confidence is the calibration quality for this strategy, in [0,1].
	Confidence float64

	// Score is the blended fitness score, in [0,100]. Higher is better.
	Score float64

	// MeetsRequirements reports whether the projection fits the caller's
	// time and memory ceilings. Unconstrained axes are trivially met.
	MeetsRequirements bool
}
