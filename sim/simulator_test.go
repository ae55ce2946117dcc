package sim

import (
	"testing"
)

func testConfig(seed int64) Config {
	cfg := DefaultConfig(seed)
	cfg.Horizon = 120
	cfg.Replicates = 2
	cfg.Workers = 2
	cfg.Initial = Counts{S: 9997, I: 3}
	return cfg
}

func TestRun_SeriesSpansFullHorizon(t *testing.T) {
	cfg := testConfig(1)
	res, err := NewRunner(&cfg).Run(0, 1234)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Series) != cfg.Horizon+1 {
		t.Errorf("series length = %d, want %d", len(res.Series), cfg.Horizon+1)
	}
	if res.Series[0] != cfg.Initial {
		t.Errorf("series[0] = %+v, want initial state %+v", res.Series[0], cfg.Initial)
	}
	if res.ID == "" {
		t.Error("result has no ID")
	}
}

func TestRun_NoEarlyExitWhenEpidemicDiesOut(t *testing.T) {
	// No infectious seed and no vital dynamics: nothing ever happens, but
	// the run must still produce a full-length series.
	cfg := testConfig(1)
	cfg.Params.Vital.Enabled = false
	cfg.Initial = Counts{S: 1000}
	res, err := NewRunner(&cfg).Run(0, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Series) != cfg.Horizon+1 {
		t.Errorf("series length = %d, want %d", len(res.Series), cfg.Horizon+1)
	}
	for i, c := range res.Series {
		if c != cfg.Initial {
			t.Fatalf("timestep %d: state changed with no epidemic and no vitals: %+v", i, c)
		}
	}
}

func TestRun_ConservationInvariant(t *testing.T) {
	// Total population equals initial total plus cumulative arrivals minus
	// cumulative departures, and no compartment is ever negative.
	cfg := testConfig(7)
	res, err := NewRunner(&cfg).Run(0, 555)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final := res.Series[len(res.Series)-1]
	wantTotal := cfg.Initial.Total() + res.Arrivals - res.Departures
	if final.Total() != wantTotal {
		t.Errorf("final total = %d, want %d (initial %d + arrivals %d - departures %d)",
			final.Total(), wantTotal, cfg.Initial.Total(), res.Arrivals, res.Departures)
	}
	for i, c := range res.Series {
		if err := c.Validate(i); err != nil {
			t.Fatalf("timestep %d: %v", i, err)
		}
	}
}

func TestRun_ConservationWithVitalsDisabled(t *testing.T) {
	cfg := testConfig(7)
	cfg.Params.Vital.Enabled = false
	res, err := NewRunner(&cfg).Run(0, 555)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range res.Series {
		if c.Total() != cfg.Initial.Total() {
			t.Fatalf("timestep %d: total = %d, want constant %d", i, c.Total(), cfg.Initial.Total())
		}
	}
}

func TestRun_DeterministicFlagsReproduceExactly(t *testing.T) {
	cfg := testConfig(3)
	cfg.Flags = Flags{}
	r := NewRunner(&cfg)

	// Different seeds: with every stochastic flag off the RNG is never
	// consulted, so the series must still be identical.
	res1, err := r.Run(0, 111)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res2, err := r.Run(1, 222)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range res1.Series {
		if res1.Series[i] != res2.Series[i] {
			t.Fatalf("timestep %d: %+v vs %+v", i, res1.Series[i], res2.Series[i])
		}
	}
}

func TestRun_SameSeedSameSeries(t *testing.T) {
	cfg := testConfig(3)
	r := NewRunner(&cfg)
	res1, err := r.Run(0, 777)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res2, err := r.Run(0, 777)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range res1.Series {
		if res1.Series[i] != res2.Series[i] {
			t.Fatalf("timestep %d differs with identical seed: %+v vs %+v", i, res1.Series[i], res2.Series[i])
		}
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	cfg := testConfig(3)
	r := NewRunner(&cfg)
	res1, err := r.Run(0, 777)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res2, err := r.Run(0, 778)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range res1.Series {
		if res1.Series[i] != res2.Series[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical series over the whole horizon")
	}
}

func TestRun_ConstantSeriesEquivalentToScalar(t *testing.T) {
	cfg1 := testConfig(5)
	cfg2 := testConfig(5)
	series := make([]float64, cfg2.Horizon)
	for i := range series {
		series[i] = 1.0 / 30
	}
	cfg2.Params.Quarantine.EntryRate = Series(series)

	res1, err := NewRunner(&cfg1).Run(0, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res2, err := NewRunner(&cfg2).Run(0, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range res1.Series {
		if res1.Series[i] != res2.Series[i] {
			t.Fatalf("timestep %d: constant series diverged from scalar: %+v vs %+v",
				i, res1.Series[i], res2.Series[i])
		}
	}
}

func TestMeanAge(t *testing.T) {
	cases := []struct {
		name     string
		n0       int64
		age      float64
		exits    int64
		entrants int64
		want     float64
	}{
		{"all stay, no entrants", 10, 2, 0, 0, 3},
		{"pool empties", 10, 2, 10, 0, 0},
		{"entrants dilute", 10, 1, 0, 10, 1}, // 10 stayers at age 2, 10 entrants at 0
		{"empty pool gains entrants", 0, 0, 0, 5, 0},
	}
	for _, c := range cases {
		if got := meanAge(c.n0, c.age, c.exits, c.entrants); got != c.want {
			t.Errorf("%s: meanAge = %g, want %g", c.name, got, c.want)
		}
	}
}
