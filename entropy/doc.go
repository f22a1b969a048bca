// Package entropy computes windowed permutation entropy (the Bandt-Pompe
// method) and the tau-delay heatmap built from it.
//
// A series is cut into windows [start, start+window) at a fixed step.
// Every window is symbolized with package ordinal, its patterns counted over
// all D! permutations in lexicographic order, and the Shannon entropy of that
// distribution divided by ln(D!):
//
//	trace, err := entropy.BandtPompe(ibi, entropy.Options{
//	    Dimension: 3,
//	    Delay:     1,
//	    Window:    100,
//	    Step:      1,
//	})
//
// Windows are processed sequentially so trace.Windows is always ordered by
// start offset. Sweep repeats the computation for tau = 1..DelayMax and
// stacks one row per delay.
//
// Validation happens before any numeric work; each failure is a sentinel
// error (ErrSeriesTooShort, ErrWindowExceedsLength, ErrInvalidStep,
// ErrNoWindowsFormed) to be matched with errors.Is.
package entropy
