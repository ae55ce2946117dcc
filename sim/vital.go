package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// VitalFlows holds one timestep of background population turnover:
// arrivals into S/E/I/Q and per-compartment background deaths. Background
// deaths leave the tracked population entirely; only disease fatalities
// accumulate in F.
type VitalFlows struct {
	ArrivalS int64
	ArrivalE int64
	ArrivalI int64
	ArrivalQ int64
	DeathS   int64
	DeathE   int64
	DeathI   int64
	DeathQ   int64
	DeathH   int64
	DeathR   int64
}

// Arrivals returns the total number of new individuals entering this step.
func (v VitalFlows) Arrivals() int64 {
	return v.ArrivalS + v.ArrivalE + v.ArrivalI + v.ArrivalQ
}

// Departures returns the total number of background deaths this step.
func (v VitalFlows) Departures() int64 {
	return v.DeathS + v.DeathE + v.DeathI + v.DeathQ + v.DeathH + v.DeathR
}

// VitalDynamics computes arrivals and background departures, independent of
// the disease process. When disabled in the config it is never invoked and
// population size is conserved except for disease-driven flow into F.
type VitalDynamics struct {
	params VitalParams
	flags  Flags
}

// NewVitalDynamics builds the module for one scenario.
func NewVitalDynamics(params VitalParams, flags Flags) *VitalDynamics {
	return &VitalDynamics{params: params, flags: flags}
}

// Step computes vital flows against the post-disease counts for timestep t.
// The arrival pool is sized by the arrival rate applied to the living
// population and split to E, I, Q by the configured proportions, remainder
// to S. Departures are drawn per compartment and clamped so nothing goes
// negative.
func (v *VitalDynamics) Step(t int, c Counts, rng *rand.Rand) (VitalFlows, error) {
	var f VitalFlows
	p := v.params

	arrivalRate, err := probAt("vital.arrival_rate", p.ArrivalRate, t)
	if err != nil {
		return VitalFlows{}, err
	}
	total := samplerFor(v.flags.Arrivals).Draw(rng, c.Living(), arrivalRate)
	f.ArrivalE = int64(math.Round(float64(total) * p.PropE))
	f.ArrivalI = int64(math.Round(float64(total) * p.PropI))
	f.ArrivalQ = int64(math.Round(float64(total) * p.PropQ))
	if over := f.ArrivalE + f.ArrivalI + f.ArrivalQ - total; over > 0 {
		// Rounding overshoot comes back out of E first, then I, then Q.
		for _, share := range []*int64{&f.ArrivalE, &f.ArrivalI, &f.ArrivalQ} {
			take := over
			if take > *share {
				take = *share
			}
			*share -= take
			over -= take
			if over == 0 {
				break
			}
		}
	}
	f.ArrivalS = total - f.ArrivalE - f.ArrivalI - f.ArrivalQ

	deathSampler := samplerFor(v.flags.Departures)
	for _, d := range []struct {
		name string
		rate Rate
		pool int64
		out  *int64
	}{
		{"vital.death_rate_s", p.DeathRateS, c.S, &f.DeathS},
		{"vital.death_rate_e", p.DeathRateE, c.E, &f.DeathE},
		{"vital.death_rate_i", p.DeathRateI, c.I, &f.DeathI},
		{"vital.death_rate_q", p.DeathRateQ, c.Q, &f.DeathQ},
		{"vital.death_rate_h", p.DeathRateH, c.H, &f.DeathH},
		{"vital.death_rate_r", p.DeathRateR, c.R, &f.DeathR},
	} {
		rate, err := probAt(d.name, d.rate, t)
		if err != nil {
			return VitalFlows{}, err
		}
		*d.out = clampFlow(deathSampler.Draw(rng, d.pool, rate), d.pool)
	}
	return f, nil
}

// applyVital folds vital flows into the counts.
func applyVital(c Counts, f VitalFlows) Counts {
	return Counts{
		S: c.S + f.ArrivalS - f.DeathS,
		E: c.E + f.ArrivalE - f.DeathE,
		I: c.I + f.ArrivalI - f.DeathI,
		Q: c.Q + f.ArrivalQ - f.DeathQ,
		H: c.H - f.DeathH,
		R: c.R - f.DeathR,
		F: c.F,
	}
}

// checkVital verifies the combined state is still non-negative; a violation
// here is a logic defect, surfaced as InvalidStateError.
func checkVital(c Counts, t int) error {
	if err := c.Validate(t); err != nil {
		return fmt.Errorf("vital dynamics: %w", err)
	}
	return nil
}
