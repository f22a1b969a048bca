package entropy

import (
	"context"
	"fmt"
	"math"

	"github.com/maroda/ictus/ordinal"
	It "github.com/maroda/ictus/types"
)

// HeatmapOptions configures a delay sweep.
type HeatmapOptions struct {
	Dimension    int
	DelayMax     int
	Window       int
	Step         int
	Value        It.HeatValue
	PatternIndex int // pattern rank for HeatFrequency
	Policy       It.AlignPolicy
}

// Sweep runs BandtPompe once per delay in 1..DelayMax and stacks the rows.
func Sweep(series []float64, opts HeatmapOptions) (It.DelayHeatmap, error) {
	return SweepContext(context.Background(), series, opts)
}

// SweepContext is Sweep with cancellation between delays and windows.
func SweepContext(ctx context.Context, series []float64, opts HeatmapOptions) (It.DelayHeatmap, error) {
	if opts.DelayMax < 1 {
		return It.DelayHeatmap{}, fmt.Errorf("%w: got %d", ErrDelayMax, opts.DelayMax)
	}
	if opts.Value == It.HeatFrequency {
		// Dimension is checked here first so Factorial stays bounded
		if err := ordinal.Validate(opts.Dimension, 1); err != nil {
			return It.DelayHeatmap{}, err
		}
		if n := ordinal.Factorial(opts.Dimension); opts.PatternIndex < 0 || opts.PatternIndex >= n {
			return It.DelayHeatmap{}, fmt.Errorf("%w: %d not in [0, %d)", ErrPatternIndex, opts.PatternIndex, n)
		}
	}

	hm := It.DelayHeatmap{
		Dimension:    opts.Dimension,
		DelayMax:     opts.DelayMax,
		WindowSize:   opts.Window,
		Step:         opts.Step,
		Value:        opts.Value,
		PatternIndex: opts.PatternIndex,
		Policy:       opts.Policy,
		Rows:         make([][]float64, 0, opts.DelayMax),
	}

	for tau := 1; tau <= opts.DelayMax; tau++ {
		trace, err := BandtPompeContext(ctx, series, Options{
			Dimension: opts.Dimension,
			Delay:     tau,
			Window:    opts.Window,
			Step:      opts.Step,
		})
		if err != nil {
			return It.DelayHeatmap{}, fmt.Errorf("delay %d: %w", tau, err)
		}

		if (opts.Dimension-1)*tau >= opts.Window {
			hm.EmptyDelays = append(hm.EmptyDelays, tau)
		}

		row := make([]float64, len(trace.Windows))
		for i, w := range trace.Windows {
			switch opts.Value {
			case It.HeatFrequency:
				row[i] = w.Distribution[opts.PatternIndex]
			default:
				row[i] = w.Entropy
			}
		}
		hm.Rows = append(hm.Rows, row)
	}

	rows, err := Align(hm.Rows, opts.Policy)
	if err != nil {
		return It.DelayHeatmap{}, err
	}
	hm.Rows = rows
	return hm, nil
}

// Align makes every row the same length according to policy.
// Rows already of equal length are returned unchanged.
func Align(rows [][]float64, policy It.AlignPolicy) ([][]float64, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	shortest, longest := len(rows[0]), len(rows[0])
	for _, r := range rows[1:] {
		shortest = min(shortest, len(r))
		longest = max(longest, len(r))
	}
	if shortest == longest {
		return rows, nil
	}

	out := make([][]float64, len(rows))
	switch policy {
	case It.AlignTruncate:
		for i, r := range rows {
			out[i] = r[:shortest]
		}
	case It.AlignPad:
		for i, r := range rows {
			padded := make([]float64, longest)
			copy(padded, r)
			for j := len(r); j < longest; j++ {
				padded[j] = math.NaN()
			}
			out[i] = padded
		}
	default:
		return nil, fmt.Errorf("%w: shortest %d, longest %d", ErrRowMismatch, shortest, longest)
	}
	return out, nil
}
