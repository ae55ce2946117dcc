package sim

import (
	"errors"
	"math"
	"testing"
)

func TestRunBatch_ValidatesConfigFirst(t *testing.T) {
	cfg := testConfig(1)
	cfg.Replicates = 0
	_, err := Run(&cfg)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRunBatch_ShortSeriesRejectedBeforeSimulation(t *testing.T) {
	cfg := testConfig(1)
	cfg.Params.Quarantine.EntryRate = Series([]float64{0.1, 0.1}) // horizon is 120
	_, err := Run(&cfg)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError for under-length series, got %v", err)
	}
}

func TestRunBatch_SameSeedIdenticalAggregate(t *testing.T) {
	cfg := testConfig(42)
	b1, err := Run(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b2, err := Run(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ti := range b1.Aggregated.Series {
		if b1.Aggregated.Series[ti] != b2.Aggregated.Series[ti] {
			t.Fatalf("timestep %d: aggregates differ across identical batches", ti)
		}
	}
}

func TestRunBatch_WorkerCountDoesNotChangeResults(t *testing.T) {
	// Replicate seeds are derived up front, so scheduling across any number
	// of workers must not affect the aggregate.
	serial := testConfig(42)
	serial.Workers = 1
	parallel := testConfig(42)
	parallel.Workers = 8

	b1, err := Run(&serial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b2, err := Run(&parallel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for ti := range b1.Aggregated.Series {
		if b1.Aggregated.Series[ti] != b2.Aggregated.Series[ti] {
			t.Fatalf("timestep %d: aggregate depends on worker count", ti)
		}
	}
}

func TestRunBatch_KeepRuns(t *testing.T) {
	cfg := testConfig(9)
	cfg.KeepRuns = true
	batch, err := Run(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Runs) != cfg.Replicates {
		t.Fatalf("kept %d runs, want %d", len(batch.Runs), cfg.Replicates)
	}
	for i, run := range batch.Runs {
		if run.Replicate != i {
			t.Errorf("run %d carries replicate index %d", i, run.Replicate)
		}
	}

	cfg.KeepRuns = false
	batch, err = Run(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Runs != nil {
		t.Error("runs retained without KeepRuns")
	}
}

func TestRunBatch_NaNRateRejectedBeforeSimulation(t *testing.T) {
	cfg := testConfig(2)
	series := make([]float64, cfg.Horizon)
	for i := range series {
		series[i] = 1.0 / 30
	}
	series[10] = math.NaN()
	cfg.Params.Quarantine.EntryRate = Series(series)

	_, err := Run(&cfg)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRun_ReplicateFailurePropagates(t *testing.T) {
	// Bypass config validation deliberately: a runner handed a NaN act rate
	// must fail its replicate rather than complete with zero infections.
	cfg := testConfig(2)
	cfg.Params.Infection.ActRateI = Constant(math.NaN())
	_, err := NewRunner(&cfg).Run(0, 1234)
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestAggregate_LengthMismatchIsAggregationError(t *testing.T) {
	good := &RunResult{Series: make([]Counts, 11)}
	bad := &RunResult{Series: make([]Counts, 7)}
	_, err := Aggregate([]*RunResult{good, bad}, StatMean, 10)
	var ae *AggregationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AggregationError, got %v", err)
	}
	if ae.Replicate != 1 || ae.Got != 7 || ae.Want != 11 {
		t.Errorf("AggregationError = %+v", ae)
	}
}

func TestAggregate_MeanAndMedian(t *testing.T) {
	runs := []*RunResult{
		{Series: []Counts{{S: 10}}},
		{Series: []Counts{{S: 20}}},
		{Series: []Counts{{S: 90}}},
	}
	mean, err := Aggregate(runs, StatMean, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mean.Value(0, Susceptible); got != 40 {
		t.Errorf("mean = %g, want 40", got)
	}
	median, err := Aggregate(runs, StatMedian, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := median.Value(0, Susceptible); got != 20 {
		t.Errorf("median = %g, want 20", got)
	}
}

func TestRunBatch_UnlimitedCapacityNeverIncreasesFatalities(t *testing.T) {
	// Deterministic comparison: with capacity beyond any plausible H the
	// overcap penalty vanishes, so cumulative fatalities cannot exceed the
	// capacity-constrained run.
	constrained := testConfig(4)
	constrained.Flags = Flags{}
	unconstrained := testConfig(4)
	unconstrained.Flags = Flags{}
	unconstrained.Params.Hospital.Capacity = Constant(1e9)

	b1, err := Run(&constrained)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b2, err := Run(&unconstrained)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := len(b1.Aggregated.Series) - 1
	if b2.Aggregated.Value(last, Fatal) > b1.Aggregated.Value(last, Fatal) {
		t.Errorf("unlimited capacity produced more fatalities: %g > %g",
			b2.Aggregated.Value(last, Fatal), b1.Aggregated.Value(last, Fatal))
	}
}

// TestRunBatch_BaselineEndToEnd reproduces the documented baseline scenario:
// 99970 susceptible, 3 infectious, 366 days, 8 replicates aggregated by
// mean. The epidemic takes off, burns out well before day 250, and leaves a
// nonzero but partial fatal count.
func TestRunBatch_BaselineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("full-population baseline run")
	}
	cfg := DefaultConfig(42)
	batch, err := Run(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agg := batch.Aggregated
	last := len(agg.Series) - 1
	initialTotal := float64(cfg.Initial.Total())

	// S declines overall; allow small per-step upticks from vital arrivals.
	if agg.Value(last, Susceptible) >= agg.Value(0, Susceptible) {
		t.Errorf("S did not decline: start %g, end %g",
			agg.Value(0, Susceptible), agg.Value(last, Susceptible))
	}
	for ti := 1; ti <= last; ti++ {
		if agg.Value(ti, Susceptible) > agg.Value(ti-1, Susceptible)+50 {
			t.Errorf("timestep %d: S rose by more than vital noise allows (%g -> %g)",
				ti, agg.Value(ti-1, Susceptible), agg.Value(ti, Susceptible))
		}
	}

	// E+I peaks well above the seed, then burns out before day 250.
	peak := 0.0
	for ti := 0; ti <= last; ti++ {
		ei := agg.Value(ti, Exposed) + agg.Value(ti, Infectious)
		if ei > peak {
			peak = ei
		}
	}
	if peak < 100 {
		t.Errorf("epidemic never took off: peak E+I = %g", peak)
	}
	at250 := agg.Value(250, Exposed) + agg.Value(250, Infectious)
	if at250 > 0.01*initialTotal {
		t.Errorf("E+I at day 250 = %g, want near zero", at250)
	}

	// Fatalities are nonzero but partial.
	finalF := agg.Value(last, Fatal)
	if finalF <= 0 || finalF >= initialTotal {
		t.Errorf("final F = %g, want in (0, %g)", finalF, initialTotal)
	}
}

// TestRunBatch_QuarantineRampLowersHospitalPeak compares the baseline
// against a self-isolation drive ramping the quarantine rate from 1/30 to
// 1/3 over the first 17 days. The ramp must lower the peak hospitalised
// load.
func TestRunBatch_QuarantineRampLowersHospitalPeak(t *testing.T) {
	if testing.Short() {
		t.Skip("full-population scenario comparison")
	}
	baseline := DefaultConfig(42)
	ramped := DefaultConfig(42)
	ramp := make([]float64, ramped.Horizon)
	for day := range ramp {
		if day >= 17 {
			ramp[day] = 1.0 / 3
			continue
		}
		ramp[day] = 1.0/30 + (1.0/3-1.0/30)*float64(day)/17
	}
	ramped.Params.Quarantine.EntryRate = Series(ramp)

	peakH := func(cfg *Config) float64 {
		t.Helper()
		batch, err := Run(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		peak := 0.0
		for ti := range batch.Aggregated.Series {
			if h := batch.Aggregated.Value(ti, Hospitalised); h > peak {
				peak = h
			}
		}
		return peak
	}

	basePeak := peakH(&baseline)
	rampPeak := peakH(&ramped)
	if rampPeak >= basePeak {
		t.Errorf("quarantine ramp did not lower peak H: baseline %g, ramped %g", basePeak, rampPeak)
	}
}
