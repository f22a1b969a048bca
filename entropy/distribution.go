package entropy

import (
	"math"

	"github.com/maroda/ictus/ordinal"
	It "github.com/maroda/ictus/types"
	"gonum.org/v1/gonum/stat"
)

// Distribution counts patterns over all d! permutations and divides by the
// number of patterns observed. No patterns gives an all-zero distribution.
func Distribution(patterns []It.OrdinalPattern, d int) (It.PatternDistribution, error) {
	dist := make(It.PatternDistribution, ordinal.Factorial(d))
	if len(patterns) == 0 {
		return dist, nil
	}

	for _, p := range patterns {
		idx, err := ordinal.Index(p)
		if err != nil {
			return nil, err
		}
		dist[idx]++
	}

	total := float64(len(patterns))
	for i := range dist {
		dist[i] /= total
	}
	return dist, nil
}

// NormalizedEntropy is -sum(p*ln p) over nonzero p, divided by ln(d!).
// The result is clamped to [0, 1] to absorb summation rounding.
func NormalizedEntropy(dist It.PatternDistribution, d int) float64 {
	maxH := math.Log(float64(ordinal.Factorial(d)))
	if maxH == 0 {
		return 0
	}

	// stat.Entropy skips zero probabilities, so ln(0) never happens
	h := stat.Entropy(dist) / maxH
	return math.Max(0, math.Min(1, h))
}
