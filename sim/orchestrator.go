package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// AggregatedResult is the terminal artifact of a batch: one per-compartment
// summary value per timestep, computed across all replicates with the
// configured statistic. Immutable once computed.
type AggregatedResult struct {
	Statistic  Statistic
	Replicates int
	// Series has one row per timestep (index 0 is the initial state) and
	// NumCompartments columns in S,E,I,Q,H,R,F order.
	Series [][NumCompartments]float64
}

// Value returns the aggregated occupancy of one compartment at one timestep.
func (a *AggregatedResult) Value(t int, c Compartment) float64 {
	return a.Series[t][c]
}

// BatchResult bundles the aggregate with the optional per-replicate series
// for consumers that need variance information.
type BatchResult struct {
	BatchID    string
	Aggregated *AggregatedResult
	Runs       []*RunResult // populated only when Config.KeepRuns is set
}

// replicateOutcome carries one replicate's result or failure back to the
// orchestrator over the results channel.
type replicateOutcome struct {
	replicate int
	result    *RunResult
	err       error
}

// Run validates the config, executes all replicates over a bounded worker
// pool, and aggregates their series. Replicates share no mutable state:
// each owns its series and an RNG stream derived from the master seed, so
// outcomes are independent of scheduling order. Any replicate failure fails
// the whole batch; a partial aggregate would silently bias the statistics.
func Run(cfg *Config) (*BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	seeds := make([]int64, cfg.Replicates)
	for i := range seeds {
		seeds[i] = prng.SeedFor(SubsystemReplicate(i))
	}

	runner := NewRunner(cfg)
	workers := cfg.workerCount()
	logrus.Debugf("batch: %d replicates over %d workers, horizon=%d, seed=%d",
		cfg.Replicates, workers, cfg.Horizon, cfg.Seed)

	jobs := make(chan int)
	outcomes := make(chan replicateOutcome, cfg.Replicates)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := runner.Run(i, seeds[i])
				outcomes <- replicateOutcome{replicate: i, result: res, err: err}
			}
		}()
	}
	for i := 0; i < cfg.Replicates; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	runs := make([]*RunResult, cfg.Replicates)
	var firstErr error
	for out := range outcomes {
		if out.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("replicate %d: %w", out.replicate, out.err)
			}
			continue
		}
		runs[out.replicate] = out.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	agg, err := Aggregate(runs, cfg.Statistic, cfg.Horizon)
	if err != nil {
		return nil, err
	}
	batch := &BatchResult{BatchID: uuid.NewString(), Aggregated: agg}
	if cfg.KeepRuns {
		batch.Runs = runs
	}
	return batch, nil
}

// Aggregate computes the per-timestep, per-compartment summary across
// replicate series. Every series must span the full horizon (initial state
// plus one row per timestep); a mismatch is an AggregationError, an
// invariant violation rather than a recoverable condition.
func Aggregate(runs []*RunResult, statistic Statistic, horizon int) (*AggregatedResult, error) {
	wantLen := horizon + 1
	for i, run := range runs {
		if run == nil || len(run.Series) != wantLen {
			got := -1
			if run != nil {
				got = len(run.Series)
			}
			return nil, &AggregationError{Replicate: i, Got: got, Want: wantLen}
		}
	}

	agg := &AggregatedResult{
		Statistic:  statistic,
		Replicates: len(runs),
		Series:     make([][NumCompartments]float64, wantLen),
	}
	values := make([]float64, len(runs))
	for t := 0; t < wantLen; t++ {
		for comp := Susceptible; comp <= Fatal; comp++ {
			for i, run := range runs {
				values[i] = float64(run.Series[t].Get(comp))
			}
			switch statistic {
			case StatMedian:
				sort.Float64s(values)
				agg.Series[t][comp] = stat.Quantile(0.5, stat.Empirical, values, nil)
			default:
				agg.Series[t][comp] = stat.Mean(values, nil)
			}
		}
	}
	return agg, nil
}
