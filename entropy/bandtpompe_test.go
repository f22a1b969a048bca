package entropy_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/maroda/ictus/entropy"
	"github.com/maroda/ictus/ordinal"
	It "github.com/maroda/ictus/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

// noisy is a deterministic non-monotonic series.
func noisy(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(float64(i)*1.7) + 0.3*math.Cos(float64(i)*0.37)
	}
	return s
}

func TestBandtPompe_Monotonic(t *testing.T) {
	trace, err := entropy.BandtPompe([]float64{1, 2, 3, 4, 5, 6}, entropy.Options{
		Dimension: 3, Delay: 1, Window: 6, Step: 1,
	})
	require.NoError(t, err)
	require.Len(t, trace.Windows, 1)

	w := trace.Windows[0]
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 0.0, w.Entropy)
	assert.Equal(t, 1.0, w.Distribution[0], "all mass on the ascending pattern")
	for _, p := range w.Distribution[1:] {
		assert.Equal(t, 0.0, p)
	}
	assert.Equal(t, 0.0, w.Time, "no beat times: window start is the time")
}

func TestBandtPompe_Uniform(t *testing.T) {
	trace, err := entropy.BandtPompe([]float64{0, 1, 0, 1, 0}, entropy.Options{
		Dimension: 2, Delay: 1, Window: 5, Step: 1,
	})
	require.NoError(t, err)
	require.Len(t, trace.Windows, 1)
	assert.InDelta(t, 1.0, trace.Windows[0].Entropy, 1e-12)
	assert.Equal(t, It.PatternDistribution{0.5, 0.5}, trace.Windows[0].Distribution)
}

func TestBandtPompe_WindowCount(t *testing.T) {
	trace, err := entropy.BandtPompe(noisy(100), entropy.Options{
		Dimension: 3, Delay: 1, Window: 20, Step: 10,
	})
	require.NoError(t, err)
	require.Len(t, trace.Windows, 9)
	for i, w := range trace.Windows {
		assert.Equal(t, i*10, w.Start, "windows ordered by start")
		assert.Equal(t, float64(i*10), w.Time)
	}
	assert.Equal(t, 3, trace.Dimension)
	assert.Equal(t, 20, trace.WindowSize)
}

func TestBandtPompe_Invariants(t *testing.T) {
	for _, d := range []int{2, 3, 4, 5} {
		trace, err := entropy.BandtPompe(noisy(300), entropy.Options{
			Dimension: d, Delay: 2, Window: 60, Step: 7,
		})
		require.NoError(t, err)
		for _, w := range trace.Windows {
			require.Len(t, w.Distribution, ordinal.Factorial(d))
			sum := 0.0
			for _, p := range w.Distribution {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
			assert.GreaterOrEqual(t, w.Entropy, 0.0)
			assert.LessOrEqual(t, w.Entropy, 1.0)
		}
	}
}

func TestBandtPompe_Deterministic(t *testing.T) {
	opts := entropy.Options{Dimension: 4, Delay: 1, Window: 50, Step: 5}
	series := []float64{1, 1, 2, 2, 1, 3, 3, 0, 0, 2}
	for len(series) < 120 {
		series = append(series, series[:10]...)
	}
	a, err := entropy.BandtPompe(series, opts)
	require.NoError(t, err)
	b, err := entropy.BandtPompe(series, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBandtPompe_EmptyWindow(t *testing.T) {
	// (D-1)*tau >= window leaves no embedding vectors
	trace, err := entropy.BandtPompe(ramp(30), entropy.Options{
		Dimension: 3, Delay: 5, Window: 10, Step: 10,
	})
	require.NoError(t, err)
	require.Len(t, trace.Windows, 3)
	for _, w := range trace.Windows {
		assert.Equal(t, 0.0, w.Entropy)
		for _, p := range w.Distribution {
			assert.Equal(t, 0.0, p)
		}
	}
}

func TestBandtPompe_Errors(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		opts   entropy.Options
		want   error
	}{
		{"too short", []float64{1, 2}, entropy.Options{Dimension: 3, Delay: 1, Window: 2, Step: 1}, entropy.ErrSeriesTooShort},
		{"window exceeds", ramp(10), entropy.Options{Dimension: 3, Delay: 1, Window: 11, Step: 1}, entropy.ErrWindowExceedsLength},
		{"zero step", ramp(10), entropy.Options{Dimension: 3, Delay: 1, Window: 5, Step: 0}, entropy.ErrInvalidStep},
		{"negative step", ramp(10), entropy.Options{Dimension: 3, Delay: 1, Window: 5, Step: -2}, entropy.ErrInvalidStep},
		{"no windows", ramp(10), entropy.Options{Dimension: 3, Delay: 1, Window: 0, Step: 1}, entropy.ErrNoWindowsFormed},
		{"dimension", ramp(10), entropy.Options{Dimension: 1, Delay: 1, Window: 5, Step: 1}, ordinal.ErrDimension},
		{"dimension too large", ramp(20), entropy.Options{Dimension: 11, Delay: 1, Window: 15, Step: 1}, ordinal.ErrDimensionTooLarge},
		{"delay", ramp(10), entropy.Options{Dimension: 3, Delay: 0, Window: 5, Step: 1}, ordinal.ErrDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entropy.BandtPompe(tt.series, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBandtPompe_BeatTimes(t *testing.T) {
	series := ramp(10)
	beats := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	trace, err := entropy.BandtPompe(series, entropy.Options{
		Dimension: 2, Delay: 1, Window: 4, Step: 3, BeatTimes: beats,
	})
	require.NoError(t, err)
	require.Len(t, trace.Windows, 3)
	assert.Equal(t, []float64{1.5, 4.5, 7.5}, entropy.Times(trace))

	// beat times shorter than the last window
	trace, err = entropy.BandtPompe(series, entropy.Options{
		Dimension: 2, Delay: 1, Window: 4, Step: 3, BeatTimes: beats[:8],
	})
	require.NoError(t, err)
	times := entropy.Times(trace)
	assert.Equal(t, 1.5, times[0])
	assert.Equal(t, 4.5, times[1])
	assert.True(t, math.IsNaN(times[2]), "uncovered window must be NaN")
}

func TestBandtPompe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := entropy.BandtPompeContext(ctx, ramp(50), entropy.Options{
		Dimension: 3, Delay: 1, Window: 10, Step: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBandtPompe_Accessors(t *testing.T) {
	trace, err := entropy.BandtPompe(noisy(40), entropy.Options{
		Dimension: 3, Delay: 1, Window: 20, Step: 10,
	})
	require.NoError(t, err)

	h := entropy.Entropies(trace)
	f := entropy.Frequencies(trace)
	require.Len(t, h, 3)
	require.Len(t, f, 3)
	for i, w := range trace.Windows {
		assert.Equal(t, w.Entropy, h[i])
		assert.Equal(t, []float64(w.Distribution), f[i])
	}
}

func TestNormalizedEntropy_AllPatterns(t *testing.T) {
	dist, err := entropy.Distribution(ordinal.Enumerate(3), 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, entropy.NormalizedEntropy(dist, 3), 1e-12)

	empty, err := entropy.Distribution(nil, 3)
	require.NoError(t, err)
	assert.Len(t, empty, 6)
	assert.Equal(t, 0.0, entropy.NormalizedEntropy(empty, 3))
}

func TestWindowStarts(t *testing.T) {
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80}, entropy.WindowStarts(100, 20, 10))
	assert.Equal(t, 9, entropy.WindowCount(100, 20, 10))
	assert.Equal(t, []int{0}, entropy.WindowStarts(5, 5, 3))
	assert.Empty(t, entropy.WindowStarts(5, 6, 1))
	assert.Empty(t, entropy.WindowStarts(5, 0, 1))
	assert.Equal(t, 0, entropy.WindowCount(5, 2, 0))
}
