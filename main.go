package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/maroda/ictus/dispatch"
	Md "github.com/maroda/ictus/display"
	Mo "github.com/maroda/ictus/obvy"
	Mp "github.com/maroda/ictus/plugin"
	Ms "github.com/maroda/ictus/server"
	It "github.com/maroda/ictus/types"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// A missing .env is fine, everything has defaults
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "error reading .env:", err)
	}

	opts := Md.ServeOptions{
		Addr:      Ms.FillEnvVarDefault("ICTUS_ADDR", ":8090"),
		Workers:   Ms.FillEnvVarInt("ICTUS_WORKERS", 0),
		StorePath: Ms.FillEnvVarDefault("ICTUS_STORE", ""),
		BatchSize: Ms.FillEnvVarInt("ICTUS_STORE_BATCH", 10),
		PlotDir:   Ms.FillEnvVarDefault("ICTUS_PLOT_DIR", ""),
	}

	root := &cobra.Command{
		Use:   "ictus",
		Short: "Ordinal-pattern entropy and inter-beat interval analysis",
		Long: `ictus computes Bandt-Pompe permutation entropy over sliding windows,
sweeps it across embedding delays into a heatmap, and extracts
inter-beat intervals from raw physiological waveforms.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVar(&opts.Workers, "workers", opts.Workers, "concurrent analyses (0 = GOMAXPROCS)")
	root.PersistentFlags().StringVar(&opts.StorePath, "store", opts.StorePath, "badger directory for completed results")
	root.PersistentFlags().IntVar(&opts.BatchSize, "store-batch", opts.BatchSize, "records buffered per store write")
	root.PersistentFlags().StringVar(&opts.PlotDir, "plot-dir", opts.PlotDir, "write diagnostic PNG plots here")

	var configFile string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API, websocket and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			shutdown := setup(ctx, os.Stderr)
			defer shutdown()

			var configs []Ms.ConfigFile
			if configFile != "" {
				var err error
				if configs, err = Ms.LoadConfigFileName(configFile); err != nil {
					return err
				}
			}
			return Md.StartWebNoTUI(ctx, configs, opts)
		},
	}
	serve.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "listen address")
	serve.Flags().StringVar(&configFile, "config", "", "analyses to submit at start")

	run := &cobra.Command{
		Use:   "run <config>",
		Short: "Run every analysis in a configuration file and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			shutdown := setup(ctx, os.Stderr)
			defer shutdown()

			configs, err := Ms.LoadConfigFileName(args[0])
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd.OutOrStdout(), configs, opts)
		},
	}

	view := &cobra.Command{
		Use:   "view <config>",
		Short: "Run a configuration file in the terminal viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The screen owns the terminal, logs go to a file
			logFile, err := os.OpenFile(Ms.FillEnvVarDefault("ICTUS_LOG_FILE", "ictus.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			defer logFile.Close()

			shutdown := setup(cmd.Context(), logFile)
			defer shutdown()

			configs, err := Ms.LoadConfigFileName(args[0])
			if err != nil {
				return err
			}
			return Md.StartViewWithConfig(configs, opts)
		},
	}
	view.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "listen address")

	root.AddCommand(serve, run, view)
	Md.Version = version

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup configures logging and tracing, returning the tracing shutdown
func setup(ctx context.Context, w io.Writer) func() {
	slog.SetDefault(slog.New(logHandler(w,
		Ms.FillEnvVarDefault("ICTUS_LOG_FORMAT", "text"),
		Ms.FillEnvVarDefault("ICTUS_LOG_LEVEL", "info"))))

	shutdown, err := Mo.InitTracing(ctx, Ms.FillEnvVar("ICTUS_OTEL"))
	if err != nil {
		slog.Error("Tracing not started", slog.Any("Error", err))
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Tracing shutdown failed", slog.Any("Error", err))
		}
	}
}

func logHandler(w io.Writer, format, level string) slog.Handler {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

func runBatch(ctx context.Context, out io.Writer, configs []Ms.ConfigFile, opts Md.ServeOptions) error {
	var store *Mp.BadgerOutput
	if opts.StorePath != "" {
		var err error
		store, err = Mp.NewBadgerOutput(opts.StorePath, opts.BatchSize)
		if err != nil {
			return err
		}
	}

	d := dispatch.New(opts.Workers, nil)
	// workers still running after a cancel write on their way out
	defer func() {
		d.Close()
		if store != nil {
			store.Close()
		}
	}()
	if store != nil {
		d.Output = store
	}

	var diag Md.Diagnostics
	if opts.PlotDir != "" {
		diag = append(diag, &Md.PNGDiagnostic{Dir: opts.PlotDir})
	}

	records, err := Ms.RunBatch(ctx, d, configs, diag)
	for _, rec := range records {
		if rec.Status != It.StatusOK {
			fmt.Fprintf(out, "%-16s %-12s %-6s %s\n", rec.Name, rec.Kind, rec.Status, rec.Message)
			continue
		}
		fmt.Fprintf(out, "%-16s %-12s %-6s %s\n", rec.Name, rec.Kind, rec.Status, payloadSummary(rec))
	}
	return err
}

func payloadSummary(rec It.AnalysisRecord) string {
	switch {
	case rec.Trace != nil:
		h := make([]float64, len(rec.Trace.Windows))
		for i, w := range rec.Trace.Windows {
			h[i] = Ms.FloatPrecise(w.Entropy, 4)
		}
		return Mp.Summarize(h)
	case rec.Heatmap != nil:
		return Mp.Summarize(rec.Heatmap.Rows)
	default:
		return Mp.Summarize(rec.IBI)
	}
}
