package sim

import (
	"math"
	"math/rand"
	"testing"
)

func TestExpectationSampler_RoundedExpectation(t *testing.T) {
	s := ExpectationSampler{}
	cases := []struct {
		n    int64
		p    float64
		want int64
	}{
		{100, 0.25, 25},
		{100, 0.249, 25},
		{100, 0.244, 24},
		{3, 0.5, 2}, // round half away from zero
		{100, 0, 0},
		{100, 1, 100},
		{0, 0.5, 0},
		{-5, 0.5, 0},
	}
	for _, c := range cases {
		if got := s.Draw(nil, c.n, c.p); got != c.want {
			t.Errorf("Draw(%d, %g) = %d, want %d", c.n, c.p, got, c.want)
		}
	}
}

func TestBinomialSampler_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := BinomialSampler{}
	for i := 0; i < 200; i++ {
		k := s.Draw(rng, 50, 0.3)
		if k < 0 || k > 50 {
			t.Fatalf("draw %d outside [0,50]", k)
		}
	}
	if got := s.Draw(rng, 50, 0); got != 0 {
		t.Errorf("p=0 draw = %d, want 0", got)
	}
	if got := s.Draw(rng, 50, 1); got != 50 {
		t.Errorf("p=1 draw = %d, want 50", got)
	}
}

func TestBinomialSampler_SameSeedSameDraws(t *testing.T) {
	s := BinomialSampler{}
	r1 := rand.New(rand.NewSource(99))
	r2 := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		a := s.Draw(r1, 1000, 0.4)
		b := s.Draw(r2, 1000, 0.4)
		if a != b {
			t.Fatalf("draw %d: %d vs %d with identical seeds", i, a, b)
		}
	}
}

func TestBinomialSampler_LargeNApproximationNearMean(t *testing.T) {
	// Normal approximation path: mean over many draws should land close to n*p.
	rng := rand.New(rand.NewSource(3))
	s := BinomialSampler{}
	const n, p, draws = 100000, 0.1, 200
	sum := 0.0
	for i := 0; i < draws; i++ {
		sum += float64(s.Draw(rng, n, p))
	}
	mean := sum / draws
	want := float64(n) * p
	// ~20 standard errors of slack; failure indicates a broken sampler, not bad luck.
	if math.Abs(mean-want) > 150 {
		t.Errorf("mean of draws = %g, want about %g", mean, want)
	}
}

func TestWeibullDelay_HazardRisesWithAge(t *testing.T) {
	w := NewWeibullDelay(1.5, 5)
	p0 := w.ExitProb(0, 0)
	p5 := w.ExitProb(0, 5)
	p15 := w.ExitProb(0, 15)
	if !(p0 < p5 && p5 < p15) {
		t.Errorf("hazard not increasing: p(0)=%g p(5)=%g p(15)=%g", p0, p5, p15)
	}
	for _, p := range []float64{p0, p5, p15} {
		if p < 0 || p > 1 {
			t.Errorf("hazard %g outside [0,1]", p)
		}
	}
}

func TestWeibullDelay_ExhaustedSurvivalIsCertainExit(t *testing.T) {
	w := NewWeibullDelay(1.5, 5)
	if got := w.ExitProb(0, 1e6); got != 1 {
		t.Errorf("ExitProb far past the distribution = %g, want 1", got)
	}
}

func TestWeibullDelay_MeanSojourn(t *testing.T) {
	// Weibull mean = scale * Gamma(1 + 1/shape); for shape=1 it is the scale.
	w := NewWeibullDelay(1, 10)
	if got := w.MeanSojourn(); math.Abs(got-10) > 1e-9 {
		t.Errorf("MeanSojourn() = %g, want 10", got)
	}
}

func TestRateDelay_IgnoresAge(t *testing.T) {
	d := RateDelay{}
	if got := d.ExitProb(0.2, 0); got != 0.2 {
		t.Errorf("ExitProb(0.2, 0) = %g, want 0.2", got)
	}
	if got := d.ExitProb(0.2, 1000); got != 0.2 {
		t.Errorf("ExitProb(0.2, 1000) = %g, want 0.2", got)
	}
	if got := d.ExitProb(1.7, 0); got != 1 {
		t.Errorf("out-of-range rate not clamped: %g", got)
	}
}

func TestDelayFor_Selection(t *testing.T) {
	if _, ok := delayFor(1.5, 5).(WeibullDelay); !ok {
		t.Error("shape+scale set: expected WeibullDelay")
	}
	if _, ok := delayFor(0, 5).(RateDelay); !ok {
		t.Error("zero shape: expected RateDelay fallback")
	}
	if _, ok := delayFor(1.5, 0).(RateDelay); !ok {
		t.Error("zero scale: expected RateDelay fallback")
	}
}
