package beat

import (
	"math"
	"sort"

	It "github.com/maroda/ictus/types"
	"gonum.org/v1/gonum/stat"
)

// LocalMaxima finds samples strictly greater than both neighbours.
// A flat top counts once, at its midpoint (rounded down). The first and
// last samples are never maxima.
func LocalMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

// FindPeaks keeps the local maxima of x at or above height, then drops
// peaks closer than distance samples to a higher one.
// Ties in height keep the later peak.
func FindPeaks(x []float64, height, distance float64) It.PeakSet {
	var candidates []int
	for _, p := range LocalMaxima(x) {
		if x[p] >= height {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return It.PeakSet{}
	}

	gap := int(math.Ceil(distance))
	if gap > 1 {
		candidates = separate(x, candidates, gap)
	}
	return It.PeakSet(candidates)
}

// separate walks peaks from highest to lowest, suppressing neighbours within gap.
func separate(x []float64, peaks []int, gap int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for o := len(order) - 1; o >= 0; o-- {
		j := order[o]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < gap; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < gap; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Threshold is the adaptive peak height mean + k*std (population std).
func Threshold(conditioned []float64, k float64) float64 {
	mean, std := stat.PopMeanStdDev(conditioned, nil)
	return mean + k*std
}

// DetectPeaks locates beats in a conditioned signal. Finding none is not an error.
func DetectPeaks(conditioned []float64, fs float64, cfg Config) It.PeakSet {
	if len(conditioned) == 0 {
		return It.PeakSet{}
	}
	return FindPeaks(conditioned, Threshold(conditioned, cfg.ThresholdStd), cfg.PeakDistance(fs))
}
