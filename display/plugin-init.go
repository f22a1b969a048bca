package ictus

import (
	"log/slog"

	Mp "github.com/maroda/ictus/plugin"
)

// InitBadgerOutput opens the result store at location and attaches it,
// so every completed analysis is persisted.
func InitBadgerOutput(view *View, location string, batchSize int) error {
	output, err := Mp.NewBadgerOutput(location, batchSize)
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.String("output", location),
			slog.Any("error", err))
		return err
	}
	view.AttachStore(output)
	slog.Info("Result store enabled",
		slog.String("output", location),
		slog.String("type", output.Type()))
	return nil
}

// AttachStore routes completed records to out and serves queries from it.
func (v *View) AttachStore(out Mp.OutputAdapter) {
	v.MU.Lock()
	v.Store = out
	v.MU.Unlock()

	v.Dispatch.MU.Lock()
	v.Dispatch.Output = out
	v.Dispatch.MU.Unlock()
}
