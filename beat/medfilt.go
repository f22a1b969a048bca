package beat

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// MedianFilter replaces every sample by the median of the kernel samples
// centred on it. Samples beyond either edge count as zero.
func MedianFilter(x []float64, kernel int) ([]float64, error) {
	if kernel < 1 || kernel%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrKernel, kernel)
	}

	half := kernel / 2
	out := make([]float64, len(x))
	win := make(stats.Float64Data, kernel)
	for i := range x {
		for k := 0; k < kernel; k++ {
			j := i - half + k
			if j < 0 || j >= len(x) {
				win[k] = 0
				continue
			}
			win[k] = x[j]
		}
		m, err := stats.Median(win)
		if err != nil {
			return nil, fmt.Errorf("beat: median at %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}
