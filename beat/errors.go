package beat

import "errors"

var (
	// ErrSampleRate indicates a sampling rate of zero or less.
	ErrSampleRate = errors.New("beat: sampling rate must be greater than zero")

	// ErrBand indicates cutoffs outside (0, fs/2) or not increasing.
	ErrBand = errors.New("beat: band-pass cutoffs must satisfy 0 < low < high < fs/2")

	// ErrFilterOrder indicates a Butterworth order below 1.
	ErrFilterOrder = errors.New("beat: filter order must be at least 1")

	// ErrSignalTooShortForFilter indicates a signal not longer than the filtfilt padding.
	ErrSignalTooShortForFilter = errors.New("beat: signal is too short for forward-backward filtering")

	// ErrKernel indicates an even or non-positive median kernel.
	ErrKernel = errors.New("beat: median kernel must be a positive odd number")

	// ErrInsufficientSignalLength indicates fewer than MinSeconds of samples.
	ErrInsufficientSignalLength = errors.New("beat: insufficient signal length")

	// ErrInsufficientPeaks indicates fewer than MinPeaks detected peaks.
	ErrInsufficientPeaks = errors.New("beat: insufficient peaks detected")
)
