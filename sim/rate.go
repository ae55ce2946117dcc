package sim

import (
	"fmt"
	"math"
)

// Rate is a simulation parameter that is either constant across the run or
// varies per day. Time-varying rates are pre-resolved per-day sequences
// (one value per timestep) produced by a policy-evaluation step; the engine
// never evaluates policy functions itself.
type Rate struct {
	value  float64
	series []float64
}

// Constant returns a Rate that resolves to v at every timestep.
func Constant(v float64) Rate {
	return Rate{value: v}
}

// Series returns a Rate backed by a per-day sequence. The sequence must be
// at least as long as the simulation horizon; CheckLen enforces this before
// any simulation starts.
func Series(values []float64) Rate {
	return Rate{series: values}
}

// IsSeries reports whether the rate is a per-day sequence.
func (r Rate) IsSeries() bool {
	return r.series != nil
}

// At resolves the effective value at timestep t. For a constant rate the
// index is ignored. Callers must have validated the series length via
// CheckLen; At panics on out-of-range access rather than silently extending
// the series, since that would mean validation was skipped.
func (r Rate) At(t int) float64 {
	if r.series == nil {
		return r.value
	}
	return r.series[t]
}

// CheckLen returns a ConfigError if the rate is a series shorter than the
// horizon.
func (r Rate) CheckLen(name string, horizon int) error {
	if r.series == nil {
		return nil
	}
	if len(r.series) < horizon {
		return &ConfigError{
			Field:  name,
			Reason: fmt.Sprintf("per-day series has %d values, horizon is %d", len(r.series), horizon),
		}
	}
	return nil
}

// CheckProb returns a ConfigError if any resolved value over the horizon
// lies outside [0,1] or is not finite. NaN fails every ordered comparison,
// so the check must spell it out rather than rely on the range bounds.
func (r Rate) CheckProb(name string, horizon int) error {
	if r.series == nil {
		if !validProb(r.value) {
			return &ConfigError{Field: name, Reason: fmt.Sprintf("probability %g outside [0,1]", r.value)}
		}
		return nil
	}
	n := min(len(r.series), horizon)
	for t := 0; t < n; t++ {
		if !validProb(r.series[t]) {
			return &ConfigError{
				Field:  name,
				Reason: fmt.Sprintf("probability %g at day %d outside [0,1]", r.series[t], t),
			}
		}
	}
	return nil
}

// CheckNonNegative returns a ConfigError if any resolved value over the
// horizon is negative or not finite. Used for unbounded parameters such as
// contact rates and hospital capacity.
func (r Rate) CheckNonNegative(name string, horizon int) error {
	if r.series == nil {
		if !validNonNegative(r.value) {
			return &ConfigError{Field: name, Reason: fmt.Sprintf("value %g must be finite and non-negative", r.value)}
		}
		return nil
	}
	n := min(len(r.series), horizon)
	for t := 0; t < n; t++ {
		if !validNonNegative(r.series[t]) {
			return &ConfigError{
				Field:  name,
				Reason: fmt.Sprintf("value %g at day %d must be finite and non-negative", r.series[t], t),
			}
		}
	}
	return nil
}

func validProb(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func validNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
