package entropy

import (
	It "github.com/maroda/ictus/types"
)

// Diagnostic draws a DiagnosticPlot somewhere outside the analysis core.
type Diagnostic interface {
	Render(plot It.DiagnosticPlot) error
}

// NopDiagnostic discards every plot.
type NopDiagnostic struct{}

func (NopDiagnostic) Render(It.DiagnosticPlot) error { return nil }

const (
	defaultTickStep     = 10
	defaultBandInterval = 10.0
)

var defaultColors = [2]string{"red", "blue"}

// BuildDiagnostic lays out the sample-index vs elapsed-time plot for opts.
// Elapsed time is BeatTimes[1:], one entry per interval of the series.
func BuildDiagnostic(series []float64, opts Options) It.DiagnosticPlot {
	tick := opts.TickStep
	if tick <= 0 {
		tick = defaultTickStep
	}
	interval := opts.BandInterval
	if interval <= 0 {
		interval = defaultBandInterval
	}
	colors := opts.Colors
	if colors[0] == "" || colors[1] == "" {
		colors = defaultColors
	}

	var times []float64
	if len(opts.BeatTimes) > 1 {
		times = append([]float64(nil), opts.BeatTimes[1:]...)
	}

	return It.DiagnosticPlot{
		Name:      opts.Name,
		Dimension: opts.Dimension,
		Delay:     opts.Delay,
		Samples:   append([]float64(nil), series...),
		Times:     times,
		TickStep:  tick,
		Bands:     ColorBands(times, interval, colors),
	}
}

// ColorBands splits [0, last time) into consecutive intervals and returns,
// for every interval containing at least one time, the span of sample
// indices inside it. Colours alternate per interval, empty ones included.
func ColorBands(times []float64, interval float64, colors [2]string) []It.Band {
	if len(times) == 0 || interval <= 0 {
		return nil
	}

	maxT := times[len(times)-1]
	var bands []It.Band
	first := true
	for lo := 0.0; lo < maxT; lo += interval {
		hi := lo + interval
		startIdx, endIdx := -1, -1
		for i, t := range times {
			if t >= lo && t < hi {
				if startIdx == -1 {
					startIdx = i
				}
				endIdx = i
			}
		}

		color := colors[1]
		if first {
			color = colors[0]
		}
		if startIdx >= 0 {
			bands = append(bands, It.Band{StartIndex: startIdx, EndIndex: endIdx, Color: color})
		}
		first = !first
	}
	return bands
}
