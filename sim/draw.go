package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// FlowSampler turns an at-risk count and a per-timestep probability into a
// flow size. The stochastic implementation treats each at-risk individual as
// an independent Bernoulli trial; the deterministic one returns the rounded
// expectation. Which one a transition uses is selected by config Flags.
type FlowSampler interface {
	Draw(rng *rand.Rand, n int64, p float64) int64
}

// BinomialSampler draws Binomial(n, p).
type BinomialSampler struct{}

// exactBinomialLimit bounds the per-trial loop; above it the draw switches
// to a rounded normal approximation, which is indistinguishable at epidemic
// population scales.
const exactBinomialLimit = 64

func (BinomialSampler) Draw(rng *rand.Rand, n int64, p float64) int64 {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	mean := float64(n) * p
	variance := mean * (1 - p)
	if mean > exactBinomialLimit && variance > exactBinomialLimit {
		k := int64(math.Round(rng.NormFloat64()*math.Sqrt(variance) + mean))
		if k < 0 {
			return 0
		}
		if k > n {
			return n
		}
		return k
	}
	var k int64
	for i := int64(0); i < n; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	return k
}

// ExpectationSampler returns the rounded expectation n*p. The rng argument
// is ignored.
type ExpectationSampler struct{}

func (ExpectationSampler) Draw(_ *rand.Rand, n int64, p float64) int64 {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	k := int64(math.Round(float64(n) * p))
	if k > n {
		return n
	}
	return k
}

// samplerFor selects the flow sampler for one transition from its flag.
func samplerFor(stochastic bool) FlowSampler {
	if stochastic {
		return BinomialSampler{}
	}
	return ExpectationSampler{}
}

// DelaySampler yields the per-timestep exit probability for a compartment
// sojourn. rate is the day's resolved exponential rate (used by the
// memoryless fallback); age is the compartment pool's mean residence time
// in days (used by distribution-shaped sojourns).
type DelaySampler interface {
	ExitProb(rate, age float64) float64
}

// WeibullDelay models an over-dispersed sojourn time with a Weibull(shape,
// scale) distribution. The per-day exit probability is the discrete hazard
//
//	p(a) = (F(a+1) - F(a)) / (1 - F(a))
//
// evaluated at the pool's mean residence age a, so short-stayers leave
// slowly at first and the exit pressure rises as the pool ages.
type WeibullDelay struct {
	dist distuv.Weibull
}

// NewWeibullDelay constructs a WeibullDelay from shape (k) and scale (λ).
func NewWeibullDelay(shape, scale float64) WeibullDelay {
	return WeibullDelay{dist: distuv.Weibull{K: shape, Lambda: scale}}
}

func (w WeibullDelay) ExitProb(_, age float64) float64 {
	if age < 0 {
		age = 0
	}
	surv := 1 - w.dist.CDF(age)
	if surv < 1e-12 {
		return 1
	}
	p := (w.dist.CDF(age+1) - w.dist.CDF(age)) / surv
	return clampProb(p)
}

// MeanSojourn returns the distribution's expected sojourn time in days.
func (w WeibullDelay) MeanSojourn() float64 {
	return w.dist.Mean()
}

// RateDelay is the memoryless fallback: a constant per-day exit rate,
// independent of how long the pool has been resident.
type RateDelay struct{}

func (RateDelay) ExitProb(rate, _ float64) float64 {
	return clampProb(rate)
}

// delayFor selects the sojourn model: Weibull when both shape and scale are
// set, otherwise the plain exponential rate.
func delayFor(shape, scale float64) DelaySampler {
	if shape > 0 && scale > 0 {
		return NewWeibullDelay(shape, scale)
	}
	return RateDelay{}
}

func clampProb(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
