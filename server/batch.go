package ictus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maroda/ictus/dispatch"
	"github.com/maroda/ictus/entropy"
	Mp "github.com/maroda/ictus/plugin"
	It "github.com/maroda/ictus/types"
)

// ErrSource wraps failures to obtain a stanza's series.
var ErrSource = errors.New("series source unavailable")

// SubmitConfig resolves one stanza's analyzer and series and dispatches it.
func SubmitConfig(d *dispatch.Dispatcher, c ConfigFile, diag entropy.Diagnostic) (string, error) {
	analyzer, err := Mp.AnalyzerLookup(c.Kind)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.ID, err)
	}
	if err := analyzer.Check(c.Params); err != nil {
		return "", fmt.Errorf("%s: %w", c.ID, err)
	}

	start := time.Now()
	series, err := LoadSeries(c)
	if c.URL != "" && len(c.Samples) == 0 {
		d.Stats.RecFetchTimer(time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", c.ID, ErrSource, err)
	}

	id := analyzer.Submit(d, Mp.Analysis{
		Name:       c.ID,
		Series:     series,
		Params:     c.Params,
		Diagnostic: diag,
	})
	slog.Info("Analysis submitted",
		slog.String("config", c.ID),
		slog.String("kind", c.Kind),
		slog.String("id", id),
		slog.Int("samples", len(series.Samples)))
	return id, nil
}

// RunBatch submits every stanza and waits for all of them.
// Stanzas that cannot be submitted are reported together in the error;
// the rest still run. Records come back in configuration order.
func RunBatch(ctx context.Context, d *dispatch.Dispatcher, configs []ConfigFile, diag entropy.Diagnostic) ([]It.AnalysisRecord, error) {
	var errs []error
	ids := make([]string, 0, len(configs))
	for _, c := range configs {
		id, err := SubmitConfig(d, c, diag)
		if err != nil {
			slog.Error("Could not submit analysis", slog.String("config", c.ID), slog.Any("Error", err))
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}

	records := make([]It.AnalysisRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := d.Await(ctx, id)
		if err != nil {
			return records, errors.Join(append(errs, err)...)
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}
