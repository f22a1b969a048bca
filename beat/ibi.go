package beat

import (
	"fmt"
	"math"

	It "github.com/maroda/ictus/types"
	"gonum.org/v1/gonum/floats"
)

// Extraction keeps the intermediate stages of one IBI run.
type Extraction struct {
	Conditioned []float64
	Peaks       It.PeakSet
	IBI         It.IBISequence
}

// ComputeIBI runs the full pipeline with DefaultConfig.
func ComputeIBI(signal []float64, fs float64) (It.IBISequence, error) {
	ex, err := Extract(signal, fs, DefaultConfig())
	if err != nil {
		return nil, err
	}
	return ex.IBI, nil
}

// Extract conditions signal, detects peaks and converts them to
// inter-beat intervals in milliseconds.
func Extract(signal []float64, fs float64, cfg Config) (Extraction, error) {
	if fs <= 0 || math.IsNaN(fs) {
		return Extraction{}, fmt.Errorf("%w: got %v", ErrSampleRate, fs)
	}
	if need := cfg.MinSeconds * fs; float64(len(signal)) < need {
		return Extraction{}, fmt.Errorf("%w: %d samples, need %.0f (%.1f s at %v Hz)",
			ErrInsufficientSignalLength, len(signal), need, cfg.MinSeconds, fs)
	}

	conditioned, err := Condition(signal, fs, cfg)
	if err != nil {
		return Extraction{}, err
	}

	peaks := DetectPeaks(conditioned, fs, cfg)
	minPeaks := max(cfg.MinPeaks, 2)
	if len(peaks) < minPeaks {
		return Extraction{}, fmt.Errorf("%w: found %d, need %d", ErrInsufficientPeaks, len(peaks), minPeaks)
	}

	return Extraction{
		Conditioned: conditioned,
		Peaks:       peaks,
		IBI:         Intervals(peaks, fs),
	}, nil
}

// Intervals converts peak indices to consecutive differences in milliseconds.
func Intervals(peaks It.PeakSet, fs float64) It.IBISequence {
	if len(peaks) < 2 {
		return It.IBISequence{}
	}
	ibi := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		ibi[i-1] = float64(peaks[i])/fs - float64(peaks[i-1])/fs
	}
	floats.Scale(1000, ibi)
	return ibi
}

// HeartRate converts intervals in milliseconds to beats per minute.
func HeartRate(ibi It.IBISequence) []float64 {
	bpm := make([]float64, len(ibi))
	for i, v := range ibi {
		if v > 0 {
			bpm[i] = 60000 / v
		}
	}
	return bpm
}
