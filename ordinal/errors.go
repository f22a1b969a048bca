package ordinal

import "errors"

var (
	// ErrDimension indicates an embedding dimension below 2.
	ErrDimension = errors.New("ordinal: embedding dimension must be at least 2")

	// ErrDimensionTooLarge indicates an embedding dimension above MaxDimension.
	ErrDimensionTooLarge = errors.New("ordinal: embedding dimension exceeds maximum")

	// ErrDelay indicates a delay below 1.
	ErrDelay = errors.New("ordinal: delay must be at least 1")

	// ErrNotPermutation indicates a pattern that is not a permutation of 0..D-1.
	ErrNotPermutation = errors.New("ordinal: pattern is not a permutation")
)
