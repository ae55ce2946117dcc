// Package policy evaluates time-varying parameter policies into the
// pre-resolved per-day rate sequences the engine consumes. Policies are
// data, not code: the engine never calls back into policy logic, so a
// scenario is fully described by its evaluated sequences.
package policy

import (
	"fmt"
	"math"

	"github.com/epidemic-sim/epidemic-sim/sim"
)

// Policy produces one rate value per day over a horizon.
type Policy interface {
	// Evaluate returns a sequence of exactly horizon values.
	Evaluate(horizon int) []float64
}

// Flat holds a single value for the whole horizon. Equivalent to a scalar
// rate; exists so policy compositions can treat constants uniformly.
type Flat struct {
	Value float64
}

func (p Flat) Evaluate(horizon int) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = p.Value
	}
	return out
}

// Ramp interpolates linearly from From to To over the first Over days, then
// holds To. Over = 0 holds To from day zero. An isolation drive that scales
// up testing and contact tracing over its first weeks is a Ramp.
type Ramp struct {
	From float64
	To   float64
	Over int
}

func (p Ramp) Evaluate(horizon int) []float64 {
	out := make([]float64, horizon)
	for day := range out {
		if p.Over <= 0 || day >= p.Over {
			out[day] = p.To
			continue
		}
		frac := float64(day) / float64(p.Over)
		out[day] = p.From + (p.To-p.From)*frac
	}
	return out
}

// Step switches from Before to After at day At. A point-in-time mandate
// (masks on, borders closed) is a Step.
type Step struct {
	Before float64
	After  float64
	At     int
}

func (p Step) Evaluate(horizon int) []float64 {
	out := make([]float64, horizon)
	for day := range out {
		if day < p.At {
			out[day] = p.Before
		} else {
			out[day] = p.After
		}
	}
	return out
}

// Window applies During between Start (inclusive) and End (exclusive) and
// Baseline elsewhere. A fixed-term lockdown is a Window; phased lockdowns
// compose several Windows via Piecewise.
type Window struct {
	Baseline float64
	During   float64
	Start    int
	End      int
}

func (p Window) Evaluate(horizon int) []float64 {
	out := make([]float64, horizon)
	for day := range out {
		if day >= p.Start && day < p.End {
			out[day] = p.During
		} else {
			out[day] = p.Baseline
		}
	}
	return out
}

// Piecewise concatenates segment policies: each segment covers Days days and
// is evaluated in isolation. The final segment is extended to fill the
// horizon.
type Piecewise struct {
	Segments []Segment
}

// Segment is one phase of a Piecewise policy.
type Segment struct {
	Days   int
	Policy Policy
}

func (p Piecewise) Evaluate(horizon int) []float64 {
	out := make([]float64, 0, horizon)
	for i, seg := range p.Segments {
		days := seg.Days
		if i == len(p.Segments)-1 && len(out)+days < horizon {
			days = horizon - len(out)
		}
		vals := seg.Policy.Evaluate(days)
		out = append(out, vals...)
		if len(out) >= horizon {
			return out[:horizon]
		}
	}
	// No segments, or segments shorter than the horizon with a truncated
	// tail: pad with the last value so the sequence always spans the run.
	last := 0.0
	if len(out) > 0 {
		last = out[len(out)-1]
	}
	for len(out) < horizon {
		out = append(out, last)
	}
	return out
}

// Rate evaluates a policy into an engine Rate.
func Rate(p Policy, horizon int) sim.Rate {
	return sim.Series(p.Evaluate(horizon))
}

// Validate checks that a policy's evaluated sequence covers the horizon and
// that every value is finite. It reports problems in the engine's
// ConfigError taxonomy so scenario loading fails before any simulation.
func Validate(name string, p Policy, horizon int) error {
	vals := p.Evaluate(horizon)
	if len(vals) < horizon {
		return &sim.ConfigError{
			Field:  name,
			Reason: fmt.Sprintf("policy evaluated to %d values, horizon is %d", len(vals), horizon),
		}
	}
	for day, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &sim.ConfigError{
				Field:  name,
				Reason: fmt.Sprintf("policy value %g at day %d is not finite", v, day),
			}
		}
	}
	return nil
}
