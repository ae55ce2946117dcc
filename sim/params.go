package sim

import "fmt"

// InfectionParams drives the force of infection. Each infectious-adjacent
// compartment (E, I, Q) contributes its own contact rate (acts per day) and
// per-contact transmission probability.
type InfectionParams struct {
	ActRateE Rate
	ActRateI Rate
	ActRateQ Rate
	InfProbE Rate
	InfProbI Rate
	InfProbQ Rate
}

// ProgressionParams drives the E→I transition. When Shape and Scale are set,
// the sojourn time in E follows a Weibull distribution and the per-day exit
// probability is its discrete hazard; otherwise ExitRate is used as a plain
// exponential rate. RevRate is the E→S reversion rate (exposure that never
// takes hold), zero in the baseline.
type ProgressionParams struct {
	ExitRate Rate
	Shape    float64
	Scale    float64
	RevRate  Rate
}

// RecoveryParams drives I→R and Q→R, with the same Weibull-or-exponential
// sojourn contract as ProgressionParams. RevRateI and RevRateQ are the I→S
// and Q→S reversion rates, zero in the baseline.
type RecoveryParams struct {
	ExitRate Rate
	Shape    float64
	Scale    float64
	RevRateI Rate
	RevRateQ Rate
}

// QuarantineParams drives the I→Q transition (self-isolation entry). The
// entry rate is the usual target of intervention ramps.
type QuarantineParams struct {
	EntryRate Rate
}

// HospitalParams groups hospitalisation, discharge, and the
// capacity-dependent fatality model.
//
// When the Hospitalised count exceeds Capacity, the fraction over capacity
// has its fatality risk interpolated from RateBase toward RateOvercap,
// attenuated by TimeCoeff for a pool that has already survived longer in
// hospital. See fatalityProb in transition.go for the pinned formula.
type HospitalParams struct {
	HospRateI   Rate
	HospRateQ   Rate
	DischRate   Rate
	Capacity    Rate
	RateBase    Rate
	RateOvercap Rate
	TimeCoeff   float64
}

// VitalParams drives background population turnover, independent of the
// disease process. Arrivals are sized by ArrivalRate applied to the living
// population and split to E, I, Q by the proportions, remainder to S.
// Departure rates are per-compartment background death probabilities.
type VitalParams struct {
	Enabled     bool
	ArrivalRate Rate
	PropE       float64
	PropI       float64
	PropQ       float64
	DeathRateS  Rate
	DeathRateE  Rate
	DeathRateI  Rate
	DeathRateQ  Rate
	DeathRateH  Rate
	DeathRateR  Rate
}

// Params is the full parameter set for one scenario. It is constructed once
// and never mutated during a run.
type Params struct {
	Infection   InfectionParams
	Progression ProgressionParams
	Recovery    RecoveryParams
	Quarantine  QuarantineParams
	Hospital    HospitalParams
	Vital       VitalParams
}

// DefaultParams returns the documented baseline parameter set: a population
// of roughly 100k with modest self-isolation, 40 hospital beds, and slow
// background turnover. The quarantine-ramp and lockdown scenarios in
// sim/policy are defined relative to this baseline.
func DefaultParams() Params {
	return Params{
		Infection: InfectionParams{
			ActRateE: Constant(10),
			ActRateI: Constant(10),
			ActRateQ: Constant(2.5),
			InfProbE: Constant(0.02),
			InfProbI: Constant(0.05),
			InfProbQ: Constant(0.02),
		},
		Progression: ProgressionParams{
			ExitRate: Constant(1.0 / 10),
			Shape:    1.5,
			Scale:    5,
			RevRate:  Constant(0),
		},
		Recovery: RecoveryParams{
			ExitRate: Constant(0.05),
			Shape:    1.5,
			Scale:    35,
			RevRateI: Constant(0),
			RevRateQ: Constant(0),
		},
		Quarantine: QuarantineParams{
			EntryRate: Constant(1.0 / 30),
		},
		Hospital: HospitalParams{
			HospRateI:   Constant(1.0 / 100),
			HospRateQ:   Constant(1.0 / 100),
			DischRate:   Constant(1.0 / 15),
			Capacity:    Constant(40),
			RateBase:    Constant(1.0 / 50),
			RateOvercap: Constant(1.0 / 25),
			TimeCoeff:   0.5,
		},
		Vital: VitalParams{
			Enabled:     true,
			ArrivalRate: Constant(10.5 / 365 / 1000),
			DeathRateS:  Constant(7.0 / 365 / 1000),
			DeathRateE:  Constant(7.0 / 365 / 1000),
			DeathRateI:  Constant(7.0 / 365 / 1000),
			DeathRateQ:  Constant(7.0 / 365 / 1000),
			DeathRateH:  Constant(20.0 / 365 / 1000),
			DeathRateR:  Constant(7.0 / 365 / 1000),
		},
	}
}

// namedRate pairs a rate with its config field name for validation.
type namedRate struct {
	name string
	rate Rate
	prob bool // probability-typed: must lie in [0,1]
}

func (p *Params) rates() []namedRate {
	return []namedRate{
		{"infection.act_rate_e", p.Infection.ActRateE, false},
		{"infection.act_rate_i", p.Infection.ActRateI, false},
		{"infection.act_rate_q", p.Infection.ActRateQ, false},
		{"infection.inf_prob_e", p.Infection.InfProbE, true},
		{"infection.inf_prob_i", p.Infection.InfProbI, true},
		{"infection.inf_prob_q", p.Infection.InfProbQ, true},
		{"progression.exit_rate", p.Progression.ExitRate, true},
		{"progression.rev_rate", p.Progression.RevRate, true},
		{"recovery.exit_rate", p.Recovery.ExitRate, true},
		{"recovery.rev_rate_i", p.Recovery.RevRateI, true},
		{"recovery.rev_rate_q", p.Recovery.RevRateQ, true},
		{"quarantine.entry_rate", p.Quarantine.EntryRate, true},
		{"hospital.hosp_rate_i", p.Hospital.HospRateI, true},
		{"hospital.hosp_rate_q", p.Hospital.HospRateQ, true},
		{"hospital.disch_rate", p.Hospital.DischRate, true},
		{"hospital.capacity", p.Hospital.Capacity, false},
		{"hospital.rate_base", p.Hospital.RateBase, true},
		{"hospital.rate_overcap", p.Hospital.RateOvercap, true},
		{"vital.arrival_rate", p.Vital.ArrivalRate, true},
		{"vital.death_rate_s", p.Vital.DeathRateS, true},
		{"vital.death_rate_e", p.Vital.DeathRateE, true},
		{"vital.death_rate_i", p.Vital.DeathRateI, true},
		{"vital.death_rate_q", p.Vital.DeathRateQ, true},
		{"vital.death_rate_h", p.Vital.DeathRateH, true},
		{"vital.death_rate_r", p.Vital.DeathRateR, true},
	}
}

// Validate checks every rate for series length and range over the horizon.
// It surfaces the first problem as a ConfigError, before any simulation
// starts.
func (p *Params) Validate(horizon int) error {
	for _, nr := range p.rates() {
		if err := nr.rate.CheckLen(nr.name, horizon); err != nil {
			return err
		}
		if nr.prob {
			if err := nr.rate.CheckProb(nr.name, horizon); err != nil {
				return err
			}
		} else {
			if err := nr.rate.CheckNonNegative(nr.name, horizon); err != nil {
				return err
			}
		}
	}
	if p.Progression.Shape < 0 || p.Progression.Scale < 0 {
		return &ConfigError{Field: "progression", Reason: "Weibull shape and scale must be non-negative"}
	}
	if p.Recovery.Shape < 0 || p.Recovery.Scale < 0 {
		return &ConfigError{Field: "recovery", Reason: "Weibull shape and scale must be non-negative"}
	}
	if p.Hospital.TimeCoeff < 0 {
		return &ConfigError{Field: "hospital.time_coeff", Reason: "must be non-negative"}
	}
	for _, prop := range []struct {
		name string
		v    float64
	}{
		{"vital.prop_e", p.Vital.PropE},
		{"vital.prop_i", p.Vital.PropI},
		{"vital.prop_q", p.Vital.PropQ},
	} {
		if prop.v < 0 || prop.v > 1 {
			return &ConfigError{Field: prop.name, Reason: fmt.Sprintf("proportion %g outside [0,1]", prop.v)}
		}
	}
	if sum := p.Vital.PropE + p.Vital.PropI + p.Vital.PropQ; sum > 1 {
		return &ConfigError{Field: "vital.proportions", Reason: fmt.Sprintf("arrival proportions sum to %g, must be <= 1", sum)}
	}
	return nil
}
