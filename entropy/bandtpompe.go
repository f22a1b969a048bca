package entropy

import (
	"context"
	"fmt"
	"math"

	"github.com/maroda/ictus/ordinal"
	It "github.com/maroda/ictus/types"
	"gonum.org/v1/gonum/stat"
)

// Options configures one Bandt-Pompe sweep
type Options struct {
	Dimension int // embedding dimension D
	Delay     int // tau
	Window    int // samples per window
	Step      int // offset between window starts

	// BeatTimes optionally runs parallel to the series.
	// When set, each window's time is the mean of its beat-time slice.
	BeatTimes []float64

	// Diagnostic plot; drawn only when Plot is true, BeatTimes is set
	// and a Diagnostic renderer is supplied.
	Plot         bool
	Diagnostic   Diagnostic
	Name         string
	TickStep     int       // top axis tick stride in samples, default 10
	BandInterval float64   // seconds per colour band, default 10
	Colors       [2]string // alternating band colours, default red/blue
}

// Validate checks the series length against opts before any computation.
func Validate(n int, opts Options) error {
	if n < opts.Dimension {
		return fmt.Errorf("%w: %d samples, dimension %d", ErrSeriesTooShort, n, opts.Dimension)
	}
	if opts.Window > n {
		return fmt.Errorf("%w: window %d, length %d", ErrWindowExceedsLength, opts.Window, n)
	}
	if opts.Step <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidStep, opts.Step)
	}
	if err := ordinal.Validate(opts.Dimension, opts.Delay); err != nil {
		return err
	}
	if WindowCount(n, opts.Window, opts.Step) == 0 {
		return fmt.Errorf("%w: window %d, step %d", ErrNoWindowsFormed, opts.Window, opts.Step)
	}
	return nil
}

// BandtPompe computes the entropy trace of series.
func BandtPompe(series []float64, opts Options) (It.EntropyTrace, error) {
	return BandtPompeContext(context.Background(), series, opts)
}

// BandtPompeContext is BandtPompe with a cancellation checkpoint between windows.
func BandtPompeContext(ctx context.Context, series []float64, opts Options) (It.EntropyTrace, error) {
	if err := Validate(len(series), opts); err != nil {
		return It.EntropyTrace{}, err
	}

	starts := WindowStarts(len(series), opts.Window, opts.Step)
	trace := It.EntropyTrace{
		Dimension:  opts.Dimension,
		Delay:      opts.Delay,
		WindowSize: opts.Window,
		Step:       opts.Step,
		Windows:    make([]It.WindowEntropy, 0, len(starts)),
	}

	for _, start := range starts {
		if err := ctx.Err(); err != nil {
			return It.EntropyTrace{}, fmt.Errorf("entropy: stopped at window %d: %w", start, err)
		}

		segment := series[start : start+opts.Window]
		patterns, err := ordinal.Patterns(segment, opts.Dimension, opts.Delay)
		if err != nil {
			return It.EntropyTrace{}, err
		}
		dist, err := Distribution(patterns, opts.Dimension)
		if err != nil {
			return It.EntropyTrace{}, err
		}

		h := 0.0
		if len(patterns) > 0 {
			h = NormalizedEntropy(dist, opts.Dimension)
		}

		trace.Windows = append(trace.Windows, It.WindowEntropy{
			Start:        start,
			Distribution: dist,
			Entropy:      h,
			Time:         windowTime(opts.BeatTimes, start, opts.Window),
		})
	}

	if opts.Plot && opts.Diagnostic != nil && opts.BeatTimes != nil {
		plot := BuildDiagnostic(series, opts)
		if err := opts.Diagnostic.Render(plot); err != nil {
			return It.EntropyTrace{}, fmt.Errorf("entropy: diagnostic render: %w", err)
		}
	}

	return trace, nil
}

// windowTime picks the representative time of a window.
// NaN marks beat times that do not cover the window.
func windowTime(beatTimes []float64, start, window int) float64 {
	if beatTimes == nil {
		return float64(start)
	}
	if len(beatTimes) < start+window {
		return math.NaN()
	}
	return stat.Mean(beatTimes[start:start+window], nil)
}

// Entropies returns the normalized entropy of every window in order.
func Entropies(tr It.EntropyTrace) []float64 {
	out := make([]float64, len(tr.Windows))
	for i, w := range tr.Windows {
		out[i] = w.Entropy
	}
	return out
}

// Frequencies returns the window-by-pattern frequency matrix.
func Frequencies(tr It.EntropyTrace) [][]float64 {
	out := make([][]float64, len(tr.Windows))
	for i, w := range tr.Windows {
		out[i] = w.Distribution
	}
	return out
}

// Times returns the representative time of every window; NaN is missing data.
func Times(tr It.EntropyTrace) []float64 {
	out := make([]float64, len(tr.Windows))
	for i, w := range tr.Windows {
		out[i] = w.Time
	}
	return out
}
