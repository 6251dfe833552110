package simulate

import (
	"math"
	"math/rand"
)

// poisson draws from a Poisson distribution via Knuth's product method;
// fine for the small lambdas used here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// betaSample draws from Beta(a, b) for integer shapes, via ratios of
// gamma variates built from exponential sums.
func betaSample(rng *rand.Rand, a, b int) float64 {
	ga := gammaInt(rng, a)
	gb := gammaInt(rng, b)
	if ga+gb == 0 {
		return 0
	}
	return ga / (ga + gb)
}

// gammaInt draws from Gamma(shape, 1) for integer shape as a sum of
// exponentials.
func gammaInt(rng *rand.Rand, shape int) float64 {
	var sum float64
	for i := 0; i < shape; i++ {
		sum += rng.ExpFloat64()
	}
	return sum
}

// intBetween draws a uniform integer in [lo, hi).
func intBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo)
}
