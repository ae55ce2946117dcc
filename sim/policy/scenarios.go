package policy

// Built-in scenario presets for common intervention patterns.
// Each returns a valid sim.Config ready for sim.Run, differing from the
// documented baseline only in the parameters named by the scenario.

import (
	"github.com/epidemic-sim/epidemic-sim/sim"
)

// ScenarioBaseline is the reference scenario: defaults everywhere, constant
// low self-isolation, 40 hospital beds.
func ScenarioBaseline(seed int64) sim.Config {
	return sim.DefaultConfig(seed)
}

// ScenarioQuarantineRamp ramps the quarantine entry rate from 1/30 to 1/3
// over the first 17 days, then holds it: a self-isolation drive that takes
// two and a half weeks to reach full compliance.
func ScenarioQuarantineRamp(seed int64) sim.Config {
	cfg := sim.DefaultConfig(seed)
	cfg.Params.Quarantine.EntryRate = Rate(Ramp{From: 1.0 / 30, To: 1.0 / 3, Over: 17}, cfg.Horizon)
	return cfg
}

// ScenarioLockdown suppresses the infectious contact rate to a quarter of
// baseline during a four-week window starting at day 30, then releases it.
func ScenarioLockdown(seed int64) sim.Config {
	cfg := sim.DefaultConfig(seed)
	cfg.Params.Infection.ActRateI = Rate(Window{Baseline: 10, During: 2.5, Start: 30, End: 58}, cfg.Horizon)
	cfg.Params.Infection.ActRateE = Rate(Window{Baseline: 10, During: 2.5, Start: 30, End: 58}, cfg.Horizon)
	return cfg
}

// ScenarioPhasedReopening composes a hard lockdown with a gradual ramp back
// to baseline contact rates: full contact for a month, a month of lockdown,
// then a 60-day linear reopening.
func ScenarioPhasedReopening(seed int64) sim.Config {
	cfg := sim.DefaultConfig(seed)
	phased := Piecewise{Segments: []Segment{
		{Days: 30, Policy: Flat{Value: 10}},
		{Days: 28, Policy: Flat{Value: 2.5}},
		{Days: 60, Policy: Ramp{From: 2.5, To: 10, Over: 60}},
	}}
	cfg.Params.Infection.ActRateI = Rate(phased, cfg.Horizon)
	cfg.Params.Infection.ActRateE = Rate(phased, cfg.Horizon)
	return cfg
}

// ScenarioSurgeCapacity doubles hospital capacity via a step at day 45,
// isolating the over-capacity fatality penalty in comparisons against the
// baseline.
func ScenarioSurgeCapacity(seed int64) sim.Config {
	cfg := sim.DefaultConfig(seed)
	cfg.Params.Hospital.Capacity = Rate(Step{Before: 40, After: 80, At: 45}, cfg.Horizon)
	return cfg
}
