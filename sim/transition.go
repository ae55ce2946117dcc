package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// Flows holds the per-edge flow counts computed for one timestep. Each flow
// is drawn against the source compartment's remaining pool in the fixed
// order documented on TransitionEngine.Step, so an individual can never be
// counted as leaving two compartments in the same step.
type Flows struct {
	Infections     int64 // S→E
	Progressions   int64 // E→I
	QuarEntries    int64 // I→Q
	HospFromI      int64 // I→H
	HospFromQ      int64 // Q→H
	Discharges     int64 // H→R
	RecoveriesI    int64 // I→R
	RecoveriesQ    int64 // Q→R
	RevExposed     int64 // E→S
	RevInfectious  int64 // I→S
	RevQuarantined int64 // Q→S
	Fatalities     int64 // H→F
}

// Ages tracks the mean residence time, in days, of the pools whose exit
// behavior depends on how long they have been resident: E (progression
// sojourn), I and Q (recovery sojourn), and H (fatality time coefficient).
// This is aggregate per-compartment state; no per-individual history is
// kept.
type Ages struct {
	E float64
	I float64
	Q float64
	H float64
}

// TransitionEngine computes disease-driven flows for one timestep from the
// current counts and the rates resolved for that timestep. It holds no
// mutable state of its own and is safe to share across sequential steps of
// one replicate.
type TransitionEngine struct {
	params    Params
	flags     Flags
	progDelay DelaySampler
	recDelay  DelaySampler
}

// NewTransitionEngine builds an engine for one scenario's parameters and
// stochastic flags.
func NewTransitionEngine(params Params, flags Flags) *TransitionEngine {
	return &TransitionEngine{
		params:    params,
		flags:     flags,
		progDelay: delayFor(params.Progression.Shape, params.Progression.Scale),
		recDelay:  delayFor(params.Recovery.Shape, params.Recovery.Scale),
	}
}

// probAt resolves a probability-typed rate for timestep t, failing with
// InvalidStateError if the resolved value escapes [0,1]. Config validation
// catches this up front for well-formed inputs; the runtime check guards
// engines constructed without Validate.
func probAt(name string, r Rate, t int) (float64, error) {
	v := r.At(t)
	if v < 0 || v > 1 || math.IsNaN(v) {
		return 0, &InvalidStateError{
			Timestep: t,
			Reason:   fmt.Sprintf("%s resolved to %g, outside [0,1]", name, v),
		}
	}
	return v, nil
}

// forceOfInfection combines the contributions of the infectious-adjacent
// compartments into the per-susceptible exposure probability
//
//	foi = 1 - exp(-(actE·infE·E + actI·infI·I + actQ·infQ·Q) / living)
//
// The exponential form keeps the result a probability for any contact
// volume.
func (e *TransitionEngine) forceOfInfection(t int, c Counts) (float64, error) {
	living := c.Living()
	if living == 0 {
		return 0, nil
	}
	inf := e.params.Infection
	infProbE, err := probAt("infection.inf_prob_e", inf.InfProbE, t)
	if err != nil {
		return 0, err
	}
	infProbI, err := probAt("infection.inf_prob_i", inf.InfProbI, t)
	if err != nil {
		return 0, err
	}
	infProbQ, err := probAt("infection.inf_prob_q", inf.InfProbQ, t)
	if err != nil {
		return 0, err
	}
	pressure := inf.ActRateE.At(t)*infProbE*float64(c.E) +
		inf.ActRateI.At(t)*infProbI*float64(c.I) +
		inf.ActRateQ.At(t)*infProbQ*float64(c.Q)
	foi := 1 - math.Exp(-pressure/float64(living))
	// A NaN act rate would otherwise flow through every downstream draw as
	// silent zeros. Config validation rejects non-finite rates; this guards
	// engines constructed without it.
	if math.IsNaN(foi) || math.IsInf(foi, 0) {
		return 0, &InvalidStateError{
			Timestep: t,
			Reason:   fmt.Sprintf("force of infection is not finite (contact pressure %g)", pressure),
		}
	}
	return foi, nil
}

// Step computes the flows for timestep t. Flow order is fixed: new
// infections, progression, quarantine entry, hospitalisation, discharge,
// recovery (and reversion), fatality. Each flow is clamped to its source's
// remaining pool; counts are applied atomically afterwards via applyFlows,
// never read-after-write within the step.
func (e *TransitionEngine) Step(t int, c Counts, ages Ages, rng *rand.Rand) (Flows, error) {
	if err := c.Validate(t); err != nil {
		return Flows{}, err
	}
	var f Flows
	p := e.params

	// New infections S→E.
	foi, err := e.forceOfInfection(t, c)
	if err != nil {
		return Flows{}, err
	}
	f.Infections = samplerFor(e.flags.Infection).Draw(rng, c.S, foi)

	// Progression E→I uses the sojourn hazard at the pool's mean age.
	progRate, err := probAt("progression.exit_rate", p.Progression.ExitRate, t)
	if err != nil {
		return Flows{}, err
	}
	remE := c.E
	f.Progressions = clampFlow(samplerFor(e.flags.Progression).Draw(rng, remE, e.progDelay.ExitProb(progRate, ages.E)), remE)
	remE -= f.Progressions

	// Quarantine entry I→Q.
	quarRate, err := probAt("quarantine.entry_rate", p.Quarantine.EntryRate, t)
	if err != nil {
		return Flows{}, err
	}
	remI := c.I
	f.QuarEntries = clampFlow(samplerFor(e.flags.Quarantine).Draw(rng, remI, quarRate), remI)
	remI -= f.QuarEntries

	// Hospitalisation I→H and Q→H.
	hospRateI, err := probAt("hospital.hosp_rate_i", p.Hospital.HospRateI, t)
	if err != nil {
		return Flows{}, err
	}
	hospRateQ, err := probAt("hospital.hosp_rate_q", p.Hospital.HospRateQ, t)
	if err != nil {
		return Flows{}, err
	}
	hospSampler := samplerFor(e.flags.Hospitalisation)
	f.HospFromI = clampFlow(hospSampler.Draw(rng, remI, hospRateI), remI)
	remI -= f.HospFromI
	remQ := c.Q
	f.HospFromQ = clampFlow(hospSampler.Draw(rng, remQ, hospRateQ), remQ)
	remQ -= f.HospFromQ

	// Discharge H→R.
	dischRate, err := probAt("hospital.disch_rate", p.Hospital.DischRate, t)
	if err != nil {
		return Flows{}, err
	}
	remH := c.H
	f.Discharges = clampFlow(samplerFor(e.flags.Discharge).Draw(rng, remH, dischRate), remH)
	remH -= f.Discharges

	// Recovery I→R and Q→R share the recovery sojourn hazard, each at its
	// own pool age.
	recRate, err := probAt("recovery.exit_rate", p.Recovery.ExitRate, t)
	if err != nil {
		return Flows{}, err
	}
	recSampler := samplerFor(e.flags.Recovery)
	f.RecoveriesI = clampFlow(recSampler.Draw(rng, remI, e.recDelay.ExitProb(recRate, ages.I)), remI)
	remI -= f.RecoveriesI
	f.RecoveriesQ = clampFlow(recSampler.Draw(rng, remQ, e.recDelay.ExitProb(recRate, ages.Q)), remQ)
	remQ -= f.RecoveriesQ

	// Reversion E→S, I→S, Q→S. Zero-rate in the baseline.
	revRateE, err := probAt("progression.rev_rate", p.Progression.RevRate, t)
	if err != nil {
		return Flows{}, err
	}
	revRateI, err := probAt("recovery.rev_rate_i", p.Recovery.RevRateI, t)
	if err != nil {
		return Flows{}, err
	}
	revRateQ, err := probAt("recovery.rev_rate_q", p.Recovery.RevRateQ, t)
	if err != nil {
		return Flows{}, err
	}
	f.RevExposed = clampFlow(recSampler.Draw(rng, remE, revRateE), remE)
	f.RevInfectious = clampFlow(recSampler.Draw(rng, remI, revRateI), remI)
	f.RevQuarantined = clampFlow(recSampler.Draw(rng, remQ, revRateQ), remQ)

	// Fatality H→F with the capacity-dependent rate.
	fatProb, err := e.fatalityProb(t, c.H, ages.H)
	if err != nil {
		return Flows{}, err
	}
	f.Fatalities = clampFlow(samplerFor(e.flags.Fatality).Draw(rng, remH, fatProb), remH)

	return f, nil
}

// fatalityProb interpolates the per-day fatality probability between the
// baseline and over-capacity rates by the excess-occupancy fraction,
// attenuated by the time coefficient for a pool that has already survived
// longer in hospital:
//
//	p = base + (over/H)·(overcap - base) / (1 + tcoeff·meanAge)
//
// With capacity >= H the over fraction is zero and p is exactly the
// baseline rate, so an unconstrained system carries no overcap penalty.
func (e *TransitionEngine) fatalityProb(t int, h int64, meanAge float64) (float64, error) {
	if h <= 0 {
		return 0, nil
	}
	hp := e.params.Hospital
	base, err := probAt("hospital.rate_base", hp.RateBase, t)
	if err != nil {
		return 0, err
	}
	overcap, err := probAt("hospital.rate_overcap", hp.RateOvercap, t)
	if err != nil {
		return 0, err
	}
	capacity := hp.Capacity.At(t)
	if capacity < 0 || math.IsNaN(capacity) {
		return 0, &InvalidStateError{Timestep: t, Reason: fmt.Sprintf("hospital.capacity resolved to %g", capacity)}
	}
	within := math.Min(float64(h), math.Floor(capacity))
	overFrac := (float64(h) - within) / float64(h)
	if meanAge < 0 {
		meanAge = 0
	}
	p := base + overFrac*(overcap-base)/(1+hp.TimeCoeff*meanAge)
	return clampProb(p), nil
}

// applyFlows replaces the counts with the post-step state. Flows are already
// clamped against their source pools, so no compartment can go negative.
func applyFlows(c Counts, f Flows) Counts {
	return Counts{
		S: c.S - f.Infections + f.RevExposed + f.RevInfectious + f.RevQuarantined,
		E: c.E + f.Infections - f.Progressions - f.RevExposed,
		I: c.I + f.Progressions - f.QuarEntries - f.HospFromI - f.RecoveriesI - f.RevInfectious,
		Q: c.Q + f.QuarEntries - f.HospFromQ - f.RecoveriesQ - f.RevQuarantined,
		H: c.H + f.HospFromI + f.HospFromQ - f.Discharges - f.Fatalities,
		R: c.R + f.Discharges + f.RecoveriesI + f.RecoveriesQ,
		F: c.F + f.Fatalities,
	}
}

func clampFlow(n, limit int64) int64 {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
