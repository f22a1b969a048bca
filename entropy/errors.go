package entropy

import "errors"

var (
	// ErrSeriesTooShort indicates fewer samples than the embedding dimension.
	ErrSeriesTooShort = errors.New("entropy: series is too short for the embedding dimension")

	// ErrWindowExceedsLength indicates a window larger than the series.
	ErrWindowExceedsLength = errors.New("entropy: window size exceeds series length")

	// ErrInvalidStep indicates a step of zero or less.
	ErrInvalidStep = errors.New("entropy: step between windows must be greater than zero")

	// ErrNoWindowsFormed indicates a window/step combination without a single start offset.
	ErrNoWindowsFormed = errors.New("entropy: window and step form no windows, reduce window or change step")

	// ErrDelayMax indicates a heatmap sweep bound below 1.
	ErrDelayMax = errors.New("entropy: maximum delay must be at least 1")

	// ErrPatternIndex indicates a frequency heatmap pattern outside [0, D!).
	ErrPatternIndex = errors.New("entropy: pattern index out of range")

	// ErrRowMismatch indicates heatmap rows of different lengths under AlignReject.
	ErrRowMismatch = errors.New("entropy: heatmap rows differ in window count")
)
