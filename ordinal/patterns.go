package ordinal

import (
	"fmt"
	"math"
	"sort"

	It "github.com/maroda/ictus/types"
)

// MaxDimension bounds D; 10! patterns per window is already 3.6M cells.
const MaxDimension = 10

// Validate checks an embedding dimension and delay pair.
func Validate(d, tau int) error {
	if d < 2 {
		return fmt.Errorf("%w: got %d", ErrDimension, d)
	}
	if d > MaxDimension {
		return fmt.Errorf("%w: got %d, max %d", ErrDimensionTooLarge, d, MaxDimension)
	}
	if tau < 1 {
		return fmt.Errorf("%w: got %d", ErrDelay, tau)
	}
	return nil
}

// Count returns how many embedding vectors a series of length n yields.
// It is never negative.
func Count(n, d, tau int) int {
	c := n - (d-1)*tau
	if c < 0 {
		return 0
	}
	return c
}

// Patterns returns the ordinal pattern of every embedding vector
//
//	series[i], series[i+tau], ..., series[i+(d-1)*tau]
//
// for i in [0, len(series)-(d-1)*tau). A series too short for a single
// vector yields an empty, non-nil slice.
func Patterns(series []float64, d, tau int) ([]It.OrdinalPattern, error) {
	if err := Validate(d, tau); err != nil {
		return nil, err
	}

	n := Count(len(series), d, tau)
	patterns := make([]It.OrdinalPattern, 0, n)
	vec := make([]float64, d)
	for i := 0; i < n; i++ {
		for k := 0; k < d; k++ {
			vec[k] = series[i+k*tau]
		}
		patterns = append(patterns, Argsort(vec))
	}
	return patterns, nil
}

// Argsort returns the indices that sort v ascending.
// Equal values keep their original relative order, NaN sorts after every number.
func Argsort(v []float64) It.OrdinalPattern {
	idx := make(It.OrdinalPattern, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return nanLast(v[idx[a]], v[idx[b]])
	})
	return idx
}

func nanLast(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	return math.IsNaN(y) || x < y
}
