// Package ordinal symbolizes numeric series into ordinal patterns.
//
// An ordinal pattern is the permutation that sorts D samples taken tau
// apart. For D=3, tau=1 the vector (4, 7, 5) maps to (0, 2, 1): the smallest
// sample is at offset 0, then offset 2, then offset 1.
//
// Ties are broken by ascending original index (a stable sort), so
// quantized signals with repeated values always map to the same pattern:
//
//	ordinal.Patterns([]float64{3, 3, 1}, 3, 1) // [[2 0 1]]
//
// The package also enumerates the D! permutations in lexicographic order
// and ranks a permutation inside that order (Index), which is how pattern
// frequency vectors are laid out by package entropy.
//
// Dimension is limited to 2..MaxDimension; the enumeration of D! patterns
// becomes impractical past that.
package ordinal
