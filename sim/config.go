package sim

import "fmt"

// Flags selects, per transition, whether the flow is a stochastic binomial
// draw (true) or the deterministic expectation (false). With every flag
// false the engine is fully deterministic and two runs from identical
// initial conditions produce identical series.
type Flags struct {
	Infection       bool
	Progression     bool
	Quarantine      bool
	Hospitalisation bool
	Discharge       bool
	Recovery        bool
	Fatality        bool
	Arrivals        bool
	Departures      bool
}

// AllStochastic returns Flags with every transition drawn stochastically.
func AllStochastic() Flags {
	return Flags{
		Infection:       true,
		Progression:     true,
		Quarantine:      true,
		Hospitalisation: true,
		Discharge:       true,
		Recovery:        true,
		Fatality:        true,
		Arrivals:        true,
		Departures:      true,
	}
}

// Statistic selects the per-timestep aggregation across replicates.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatMedian Statistic = "median"
)

// Config is the full input for one simulation batch. It is constructed once
// per scenario and never mutated during a run.
type Config struct {
	Horizon    int       // number of timesteps (days)
	Replicates int       // independent stochastic runs
	Workers    int       // max concurrent replicates (0 = replicate count)
	Seed       int64     // master seed; per-replicate streams are derived from it
	Statistic  Statistic // aggregation across replicates
	KeepRuns   bool      // retain per-replicate series on the batch result
	Initial    Counts
	Params     Params
	Flags      Flags
}

// DefaultConfig returns the documented baseline scenario: 99970 susceptible,
// 3 infectious, one year horizon, 8 replicates aggregated by mean.
func DefaultConfig(seed int64) Config {
	return Config{
		Horizon:    366,
		Replicates: 8,
		Workers:    4,
		Seed:       seed,
		Statistic:  StatMean,
		Initial:    Counts{S: 99970, I: 3},
		Params:     DefaultParams(),
		Flags:      AllStochastic(),
	}
}

// Validate surfaces caller mistakes as ConfigError before any simulation
// starts.
func (c *Config) Validate() error {
	if c.Horizon < 1 {
		return &ConfigError{Field: "horizon", Reason: fmt.Sprintf("must be >= 1, got %d", c.Horizon)}
	}
	if c.Replicates < 1 {
		return &ConfigError{Field: "replicates", Reason: fmt.Sprintf("must be >= 1, got %d", c.Replicates)}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: fmt.Sprintf("must be >= 0, got %d", c.Workers)}
	}
	switch c.Statistic {
	case StatMean, StatMedian:
	default:
		return &ConfigError{Field: "statistic", Reason: fmt.Sprintf("unknown statistic %q", c.Statistic)}
	}
	if err := c.Initial.Validate(0); err != nil {
		return &ConfigError{Field: "initial", Reason: err.Error()}
	}
	return c.Params.Validate(c.Horizon)
}

// workerCount resolves the effective concurrency degree.
func (c *Config) workerCount() int {
	if c.Workers == 0 || c.Workers > c.Replicates {
		return c.Replicates
	}
	return c.Workers
}
