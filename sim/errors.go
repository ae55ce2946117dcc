package sim

import "fmt"

// ConfigError reports a malformed configuration detected before any
// simulation starts: an under-length time-varying parameter, an
// out-of-range rate, or a non-positive horizon or replicate count.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an invariant violation discovered mid-run:
// a negative compartment count or a probability outside [0,1]. It is fatal
// to the affected replicate and never retried.
type InvalidStateError struct {
	Timestep int
	Reason   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state at timestep %d: %s", e.Timestep, e.Reason)
}

// AggregationError reports a replicate series length mismatch at the
// aggregation step. Replicates always run the full horizon, so this is an
// invariant violation, fatal to the whole batch.
type AggregationError struct {
	Replicate int
	Got       int
	Want      int
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation: replicate %d produced %d timesteps, want %d", e.Replicate, e.Got, e.Want)
}
