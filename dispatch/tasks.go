package dispatch

import (
	"context"

	"github.com/maroda/ictus/beat"
	"github.com/maroda/ictus/entropy"
	It "github.com/maroda/ictus/types"
)

// Inputs are copied before the goroutine starts so the caller may reuse
// its slices immediately.

// BandtPompe dispatches an entropy trace.
func BandtPompe(d *Dispatcher, name string, series []float64, opts entropy.Options) *Future[It.EntropyTrace] {
	series = clone(series)
	opts.BeatTimes = clone(opts.BeatTimes)

	return Submit(d, Task[It.EntropyTrace]{
		Kind: It.KindBandtPompe,
		Name: name,
		Run: func(ctx context.Context) (It.EntropyTrace, error) {
			return entropy.BandtPompeContext(ctx, series, opts)
		},
		Fill: func(rec *It.AnalysisRecord, tr It.EntropyTrace) {
			rec.Trace = &tr
		},
	})
}

// Heatmap dispatches a delay sweep.
func Heatmap(d *Dispatcher, name string, series []float64, opts entropy.HeatmapOptions) *Future[It.DelayHeatmap] {
	series = clone(series)

	return Submit(d, Task[It.DelayHeatmap]{
		Kind: It.KindTauHeatmap,
		Name: name,
		Run: func(ctx context.Context) (It.DelayHeatmap, error) {
			return entropy.SweepContext(ctx, series, opts)
		},
		Fill: func(rec *It.AnalysisRecord, hm It.DelayHeatmap) {
			rec.Heatmap = &hm
		},
	})
}

// IBI dispatches beat extraction from a raw waveform.
func IBI(d *Dispatcher, name string, signal []float64, fs float64, cfg beat.Config) *Future[It.IBISequence] {
	signal = clone(signal)

	return Submit(d, Task[It.IBISequence]{
		Kind: It.KindIBI,
		Name: name,
		Run: func(ctx context.Context) (It.IBISequence, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ex, err := beat.Extract(signal, fs, cfg)
			if err != nil {
				return nil, err
			}
			return ex.IBI, nil
		},
		Fill: func(rec *It.AnalysisRecord, ibi It.IBISequence) {
			rec.IBI = ibi
		},
	})
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
