package beat

import (
	"fmt"
	"math"
)

// Condition band-passes, rectifies and median-smooths a raw waveform.
// The result has the same length as signal and is never negative.
func Condition(signal []float64, fs float64, cfg Config) ([]float64, error) {
	b, a, err := Butter(cfg.Order, cfg.LowCut, cfg.HighCut, fs)
	if err != nil {
		return nil, err
	}

	filtered, err := FiltFilt(b, a, signal)
	if err != nil {
		return nil, err
	}
	for i, v := range filtered {
		filtered[i] = math.Abs(v)
	}

	smooth, err := MedianFilter(filtered, cfg.MedianKernel(fs))
	if err != nil {
		return nil, fmt.Errorf("beat: smoothing: %w", err)
	}
	return smooth, nil
}
