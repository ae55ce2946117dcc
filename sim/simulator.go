package sim

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunResult is the full time series produced by one replicate: the initial
// state at index 0 followed by one Counts per timestep. It is owned
// exclusively by the replicate that produced it until handed to the
// orchestrator, then discarded once aggregated unless Config.KeepRuns is
// set.
type RunResult struct {
	ID         string // unique result identifier, for report cross-referencing
	Replicate  int    // replicate index within the batch
	Seed       int64  // derived seed for this replicate's RNG stream
	Series     []Counts
	Arrivals   int64 // cumulative vital arrivals over the run
	Departures int64 // cumulative vital departures over the run
}

// Runner executes single replicates of a scenario. It is stateless between
// runs; per-replicate state (counts, pool ages, RNG) lives on the stack of
// Run, so a single Runner may be shared by concurrent workers.
type Runner struct {
	cfg    *Config
	engine *TransitionEngine
	vital  *VitalDynamics
}

// NewRunner builds a Runner for a validated config.
func NewRunner(cfg *Config) *Runner {
	return &Runner{
		cfg:    cfg,
		engine: NewTransitionEngine(cfg.Params, cfg.Flags),
		vital:  NewVitalDynamics(cfg.Params.Vital, cfg.Flags),
	}
}

// Run executes one replicate across the full horizon. There is no early
// exit: even if every non-R/F compartment empties, the run completes so the
// output series has uniform length across replicates. The replicate owns
// its RNG stream; identical seed and config reproduce the series exactly.
func (r *Runner) Run(replicate int, seed int64) (*RunResult, error) {
	rng := rand.New(rand.NewSource(seed))
	result := &RunResult{
		ID:        uuid.NewString(),
		Replicate: replicate,
		Seed:      seed,
		Series:    make([]Counts, 0, r.cfg.Horizon+1),
	}

	cur := r.cfg.Initial
	result.Series = append(result.Series, cur)
	var ages Ages

	for t := 0; t < r.cfg.Horizon; t++ {
		flows, err := r.engine.Step(t, cur, ages, rng)
		if err != nil {
			return nil, err
		}
		next := applyFlows(cur, flows)
		if err := next.Validate(t); err != nil {
			return nil, err
		}

		var vf VitalFlows
		if r.cfg.Params.Vital.Enabled {
			vf, err = r.vital.Step(t, next, rng)
			if err != nil {
				return nil, err
			}
			next = applyVital(next, vf)
			if err := checkVital(next, t); err != nil {
				return nil, err
			}
			result.Arrivals += vf.Arrivals()
			result.Departures += vf.Departures()
		}

		ages = nextAges(ages, cur, flows, vf)
		result.Series = append(result.Series, next)
		cur = next
	}

	logrus.Debugf("replicate %d (seed %d) complete: final state S=%d E=%d I=%d Q=%d H=%d R=%d F=%d",
		replicate, seed, cur.S, cur.E, cur.I, cur.Q, cur.H, cur.R, cur.F)
	return result, nil
}

// nextAges advances the mean residence age of each age-tracked pool.
// Stayers age by one day; entrants join at age zero. An emptied pool resets
// to zero.
func nextAges(a Ages, before Counts, f Flows, v VitalFlows) Ages {
	return Ages{
		E: meanAge(before.E, a.E, f.Progressions+f.RevExposed+v.DeathE, f.Infections+v.ArrivalE),
		I: meanAge(before.I, a.I, f.QuarEntries+f.HospFromI+f.RecoveriesI+f.RevInfectious+v.DeathI, f.Progressions+v.ArrivalI),
		Q: meanAge(before.Q, a.Q, f.HospFromQ+f.RecoveriesQ+f.RevQuarantined+v.DeathQ, f.QuarEntries+v.ArrivalQ),
		H: meanAge(before.H, a.H, f.Discharges+f.Fatalities+v.DeathH, f.HospFromI+f.HospFromQ),
	}
}

// meanAge computes the pool's new mean residence age given its start count,
// prior mean age, exits, and entrants.
func meanAge(n0 int64, age float64, exits, entrants int64) float64 {
	stayers := n0 - exits
	if stayers < 0 {
		stayers = 0
	}
	end := stayers + entrants
	if end <= 0 {
		return 0
	}
	return float64(stayers) * (age + 1) / float64(end)
}
