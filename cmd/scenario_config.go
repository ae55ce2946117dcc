package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/epidemic-sim/epidemic-sim/sim"
	"github.com/epidemic-sim/epidemic-sim/sim/policy"
)

// ScenarioFile is the YAML description of one scenario. Every field is
// optional; omitted fields keep the documented baseline defaults, so a
// scenario file only names what it changes.
type ScenarioFile struct {
	Label      string              `yaml:"label"`
	Seed       *int64              `yaml:"seed,omitempty"`
	Horizon    int                 `yaml:"horizon,omitempty"`
	Replicates int                 `yaml:"replicates,omitempty"`
	Workers    int                 `yaml:"workers,omitempty"`
	Statistic  string              `yaml:"statistic,omitempty"`
	KeepRuns   bool                `yaml:"keep_runs,omitempty"`
	Initial    *InitialSpec        `yaml:"initial,omitempty"`
	Flags      *FlagsSpec          `yaml:"flags,omitempty"`
	Vital      *VitalSpec          `yaml:"vital,omitempty"`
	Sojourn    *SojournSpec        `yaml:"sojourn,omitempty"`
	FatTcoeff  *float64            `yaml:"fatality_time_coeff,omitempty"`
	Params     map[string]RateSpec `yaml:"params,omitempty"`
}

// InitialSpec is the starting compartment occupancy.
type InitialSpec struct {
	S int64 `yaml:"s"`
	E int64 `yaml:"e"`
	I int64 `yaml:"i"`
	Q int64 `yaml:"q"`
	H int64 `yaml:"h"`
	R int64 `yaml:"r"`
	F int64 `yaml:"f"`
}

// FlagsSpec selects stochastic vs deterministic draws per transition.
// Deterministic true forces every flag off regardless of the rest.
type FlagsSpec struct {
	Deterministic   bool  `yaml:"deterministic,omitempty"`
	Infection       *bool `yaml:"infection,omitempty"`
	Progression     *bool `yaml:"progression,omitempty"`
	Quarantine      *bool `yaml:"quarantine,omitempty"`
	Hospitalisation *bool `yaml:"hospitalisation,omitempty"`
	Discharge       *bool `yaml:"discharge,omitempty"`
	Recovery        *bool `yaml:"recovery,omitempty"`
	Fatality        *bool `yaml:"fatality,omitempty"`
	Arrivals        *bool `yaml:"arrivals,omitempty"`
	Departures      *bool `yaml:"departures,omitempty"`
}

// VitalSpec controls vital dynamics and arrival proportions.
type VitalSpec struct {
	Enabled *bool    `yaml:"enabled,omitempty"`
	PropE   *float64 `yaml:"prop_e,omitempty"`
	PropI   *float64 `yaml:"prop_i,omitempty"`
	PropQ   *float64 `yaml:"prop_q,omitempty"`
}

// SojournSpec overrides the Weibull sojourn shapes. A zero shape or scale
// drops the compartment back to its plain exponential exit rate.
type SojournSpec struct {
	ProgressionShape *float64 `yaml:"progression_shape,omitempty"`
	ProgressionScale *float64 `yaml:"progression_scale,omitempty"`
	RecoveryShape    *float64 `yaml:"recovery_shape,omitempty"`
	RecoveryScale    *float64 `yaml:"recovery_scale,omitempty"`
}

// RateSpec is one parameter entry: a scalar, an explicit per-day series, or
// a policy object (ramp, step, window, piecewise) evaluated to a series at
// load time.
type RateSpec struct {
	scalar *float64
	series []float64
	pol    policy.Policy
}

// ramp/step/window/piecewise mapping forms.
type rampSpec struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
	Over int     `yaml:"over"`
}

type stepSpec struct {
	Before float64 `yaml:"before"`
	After  float64 `yaml:"after"`
	At     int     `yaml:"at"`
}

type windowSpec struct {
	Baseline float64 `yaml:"baseline"`
	During   float64 `yaml:"during"`
	Start    int     `yaml:"start"`
	End      int     `yaml:"end"`
}

type segmentSpec struct {
	Days  int       `yaml:"days"`
	Value *float64  `yaml:"value,omitempty"`
	Ramp  *rampSpec `yaml:"ramp,omitempty"`
}

type policySpec struct {
	Value     *float64      `yaml:"value,omitempty"`
	Series    []float64     `yaml:"series,omitempty"`
	Ramp      *rampSpec     `yaml:"ramp,omitempty"`
	Step      *stepSpec     `yaml:"step,omitempty"`
	Window    *windowSpec   `yaml:"window,omitempty"`
	Piecewise []segmentSpec `yaml:"piecewise,omitempty"`
}

// UnmarshalYAML accepts the three entry forms: bare scalar, sequence, or
// policy mapping.
func (r *RateSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		r.scalar = &v
		return nil
	case yaml.SequenceNode:
		return node.Decode(&r.series)
	case yaml.MappingNode:
		var spec policySpec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		return r.fromPolicySpec(spec)
	}
	return fmt.Errorf("rate entry must be a scalar, sequence, or policy mapping")
}

func (r *RateSpec) fromPolicySpec(spec policySpec) error {
	switch {
	case spec.Value != nil:
		r.scalar = spec.Value
	case spec.Series != nil:
		r.series = spec.Series
	case spec.Ramp != nil:
		r.pol = policy.Ramp{From: spec.Ramp.From, To: spec.Ramp.To, Over: spec.Ramp.Over}
	case spec.Step != nil:
		r.pol = policy.Step{Before: spec.Step.Before, After: spec.Step.After, At: spec.Step.At}
	case spec.Window != nil:
		r.pol = policy.Window{Baseline: spec.Window.Baseline, During: spec.Window.During, Start: spec.Window.Start, End: spec.Window.End}
	case spec.Piecewise != nil:
		segments := make([]policy.Segment, 0, len(spec.Piecewise))
		for i, seg := range spec.Piecewise {
			switch {
			case seg.Value != nil:
				segments = append(segments, policy.Segment{Days: seg.Days, Policy: policy.Flat{Value: *seg.Value}})
			case seg.Ramp != nil:
				segments = append(segments, policy.Segment{Days: seg.Days, Policy: policy.Ramp{From: seg.Ramp.From, To: seg.Ramp.To, Over: seg.Ramp.Over}})
			default:
				return fmt.Errorf("piecewise segment %d needs a value or ramp", i)
			}
		}
		r.pol = policy.Piecewise{Segments: segments}
	default:
		return fmt.Errorf("policy mapping needs one of value, series, ramp, step, window, piecewise")
	}
	return nil
}

// toRate resolves the entry into an engine Rate for the given horizon.
// Policy-backed entries are validated before evaluation so a malformed
// policy fails scenario loading rather than the simulation.
func (r RateSpec) toRate(name string, horizon int) (sim.Rate, error) {
	switch {
	case r.scalar != nil:
		return sim.Constant(*r.scalar), nil
	case r.series != nil:
		return sim.Series(r.series), nil
	case r.pol != nil:
		if err := policy.Validate(name, r.pol, horizon); err != nil {
			return sim.Rate{}, err
		}
		return policy.Rate(r.pol, horizon), nil
	}
	return sim.Constant(0), nil
}

// LoadScenario reads a scenario file and applies it on top of the baseline
// config. The returned label falls back to the file name when the scenario
// does not set one.
func LoadScenario(path string, defaultSeed int64) (sim.Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Config{}, "", fmt.Errorf("reading scenario file: %w", err)
	}
	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return sim.Config{}, "", fmt.Errorf("parsing scenario file %s: %w", path, err)
	}

	label := file.Label
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	seed := defaultSeed
	if file.Seed != nil {
		seed = *file.Seed
	}
	cfg, err := file.apply(sim.DefaultConfig(seed))
	if err != nil {
		return sim.Config{}, "", fmt.Errorf("scenario %s: %w", label, err)
	}
	return cfg, label, nil
}

// apply overlays the scenario file onto a base config.
func (f *ScenarioFile) apply(cfg sim.Config) (sim.Config, error) {
	if f.Horizon > 0 {
		cfg.Horizon = f.Horizon
	}
	if f.Replicates > 0 {
		cfg.Replicates = f.Replicates
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.Statistic != "" {
		cfg.Statistic = sim.Statistic(f.Statistic)
	}
	cfg.KeepRuns = cfg.KeepRuns || f.KeepRuns
	if f.Initial != nil {
		cfg.Initial = sim.Counts{
			S: f.Initial.S, E: f.Initial.E, I: f.Initial.I, Q: f.Initial.Q,
			H: f.Initial.H, R: f.Initial.R, F: f.Initial.F,
		}
	}
	if f.Flags != nil {
		cfg.Flags = f.Flags.apply(cfg.Flags)
	}
	if f.Vital != nil {
		if f.Vital.Enabled != nil {
			cfg.Params.Vital.Enabled = *f.Vital.Enabled
		}
		if f.Vital.PropE != nil {
			cfg.Params.Vital.PropE = *f.Vital.PropE
		}
		if f.Vital.PropI != nil {
			cfg.Params.Vital.PropI = *f.Vital.PropI
		}
		if f.Vital.PropQ != nil {
			cfg.Params.Vital.PropQ = *f.Vital.PropQ
		}
	}
	if f.Sojourn != nil {
		if f.Sojourn.ProgressionShape != nil {
			cfg.Params.Progression.Shape = *f.Sojourn.ProgressionShape
		}
		if f.Sojourn.ProgressionScale != nil {
			cfg.Params.Progression.Scale = *f.Sojourn.ProgressionScale
		}
		if f.Sojourn.RecoveryShape != nil {
			cfg.Params.Recovery.Shape = *f.Sojourn.RecoveryShape
		}
		if f.Sojourn.RecoveryScale != nil {
			cfg.Params.Recovery.Scale = *f.Sojourn.RecoveryScale
		}
	}
	if f.FatTcoeff != nil {
		cfg.Params.Hospital.TimeCoeff = *f.FatTcoeff
	}
	for name, spec := range f.Params {
		rate, err := spec.toRate(name, cfg.Horizon)
		if err != nil {
			return cfg, err
		}
		if err := setParam(&cfg.Params, name, rate); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (s *FlagsSpec) apply(flags sim.Flags) sim.Flags {
	if s.Deterministic {
		return sim.Flags{}
	}
	setIf := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&flags.Infection, s.Infection)
	setIf(&flags.Progression, s.Progression)
	setIf(&flags.Quarantine, s.Quarantine)
	setIf(&flags.Hospitalisation, s.Hospitalisation)
	setIf(&flags.Discharge, s.Discharge)
	setIf(&flags.Recovery, s.Recovery)
	setIf(&flags.Fatality, s.Fatality)
	setIf(&flags.Arrivals, s.Arrivals)
	setIf(&flags.Departures, s.Departures)
	return flags
}

// setParam routes a named scenario entry to its Params field.
func setParam(p *sim.Params, name string, rate sim.Rate) error {
	switch name {
	case "act_rate_e":
		p.Infection.ActRateE = rate
	case "act_rate_i":
		p.Infection.ActRateI = rate
	case "act_rate_q":
		p.Infection.ActRateQ = rate
	case "inf_prob_e":
		p.Infection.InfProbE = rate
	case "inf_prob_i":
		p.Infection.InfProbI = rate
	case "inf_prob_q":
		p.Infection.InfProbQ = rate
	case "progression_rate":
		p.Progression.ExitRate = rate
	case "progression_rev_rate":
		p.Progression.RevRate = rate
	case "recovery_rate":
		p.Recovery.ExitRate = rate
	case "recovery_rev_rate_i":
		p.Recovery.RevRateI = rate
	case "recovery_rev_rate_q":
		p.Recovery.RevRateQ = rate
	case "quarantine_rate":
		p.Quarantine.EntryRate = rate
	case "hosp_rate_i":
		p.Hospital.HospRateI = rate
	case "hosp_rate_q":
		p.Hospital.HospRateQ = rate
	case "discharge_rate":
		p.Hospital.DischRate = rate
	case "hospital_capacity":
		p.Hospital.Capacity = rate
	case "fatality_rate_base":
		p.Hospital.RateBase = rate
	case "fatality_rate_overcap":
		p.Hospital.RateOvercap = rate
	case "arrival_rate":
		p.Vital.ArrivalRate = rate
	case "death_rate_s":
		p.Vital.DeathRateS = rate
	case "death_rate_e":
		p.Vital.DeathRateE = rate
	case "death_rate_i":
		p.Vital.DeathRateI = rate
	case "death_rate_q":
		p.Vital.DeathRateQ = rate
	case "death_rate_h":
		p.Vital.DeathRateH = rate
	case "death_rate_r":
		p.Vital.DeathRateR = rate
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}
