package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/maroda/ictus/beat"
	"github.com/maroda/ictus/dispatch"
	"github.com/maroda/ictus/entropy"
	It "github.com/maroda/ictus/types"
)

// ErrParam marks a parameter that cannot be interpreted at all.
var ErrParam = errors.New("invalid analysis parameter")

// BandtPompeAnalyzer runs the windowed permutation entropy.
type BandtPompeAnalyzer struct{}

func (BandtPompeAnalyzer) Kind() It.AnalysisKind { return It.KindBandtPompe }

func (BandtPompeAnalyzer) Check(p It.AnalysisParams) error { return nil }

func (BandtPompeAnalyzer) Submit(d *dispatch.Dispatcher, a Analysis) string {
	p := a.Params
	opts := entropy.Options{
		Dimension:  p.Dimension,
		Delay:      p.Delay,
		Window:     p.Window,
		Step:       p.Step,
		BeatTimes:  a.Series.BeatTimes,
		Plot:       p.Plot,
		Diagnostic: a.Diagnostic,
		Name:       a.Name,
	}
	return dispatch.BandtPompe(d, a.Name, a.Series.Samples, opts).ID
}

// HeatmapAnalyzer sweeps the delay from 1 to DelayMax.
type HeatmapAnalyzer struct{}

func (HeatmapAnalyzer) Kind() It.AnalysisKind { return It.KindTauHeatmap }

func (HeatmapAnalyzer) Check(p It.AnalysisParams) error {
	_, err := heatmapOptions(p)
	return err
}

// Submit turns an unreadable value or align into an error record.
func (HeatmapAnalyzer) Submit(d *dispatch.Dispatcher, a Analysis) string {
	opts, err := heatmapOptions(a.Params)
	if err != nil {
		return dispatch.Submit(d, dispatch.Task[It.DelayHeatmap]{
			Kind: It.KindTauHeatmap,
			Name: a.Name,
			Run: func(context.Context) (It.DelayHeatmap, error) {
				return It.DelayHeatmap{}, err
			},
		}).ID
	}
	return dispatch.Heatmap(d, a.Name, a.Series.Samples, opts).ID
}

func heatmapOptions(p It.AnalysisParams) (entropy.HeatmapOptions, error) {
	value, err := ParseHeatValue(p.Value)
	if err != nil {
		return entropy.HeatmapOptions{}, err
	}
	align, err := ParseAlign(p.Align)
	if err != nil {
		return entropy.HeatmapOptions{}, err
	}
	return entropy.HeatmapOptions{
		Dimension:    p.Dimension,
		DelayMax:     p.DelayMax,
		Window:       p.Window,
		Step:         p.Step,
		Value:        value,
		PatternIndex: p.Pattern,
		Policy:       align,
	}, nil
}

// IBIAnalyzer extracts inter-beat intervals from a raw waveform.
type IBIAnalyzer struct {
	Config beat.Config
}

func (IBIAnalyzer) Kind() It.AnalysisKind { return It.KindIBI }

func (IBIAnalyzer) Check(p It.AnalysisParams) error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: fs must be set for %s, got %v", ErrParam, It.KindIBI, p.SampleRate)
	}
	return nil
}

func (ia IBIAnalyzer) Submit(d *dispatch.Dispatcher, a Analysis) string {
	return dispatch.IBI(d, a.Name, a.Series.Samples, a.Params.SampleRate, ia.Config).ID
}

// ParseHeatValue maps "entropy" (or empty) and "frequency" to a HeatValue.
func ParseHeatValue(s string) (It.HeatValue, error) {
	switch s {
	case "", "entropy":
		return It.HeatEntropy, nil
	case "frequency":
		return It.HeatFrequency, nil
	default:
		return 0, fmt.Errorf("%w: value %q", ErrParam, s)
	}
}

// ParseAlign maps "reject" (or empty), "truncate" and "pad" to an AlignPolicy.
func ParseAlign(s string) (It.AlignPolicy, error) {
	switch s {
	case "", "reject":
		return It.AlignReject, nil
	case "truncate":
		return It.AlignTruncate, nil
	case "pad":
		return It.AlignPad, nil
	default:
		return 0, fmt.Errorf("%w: align %q", ErrParam, s)
	}
}
