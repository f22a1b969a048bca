package ictus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maroda/ictus"

// Tracer is the one tracer every package starts spans from.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitOTelHNY uses the Honeycomb library to interface with OTel
func InitOTelHNY() (func(context.Context) error, error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func(context.Context) error {
		otelShutdown()
		return nil
	}, nil
}

// InitOTelOTLP exports over OTLP/HTTP with TraceContext and Baggage propagation.
// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables.
func InitOTelOTLP(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

// InitTracing picks an exporter by name: "honeycomb", "otlp", or anything
// else for the global no-op provider.
func InitTracing(ctx context.Context, mode string) (func(context.Context) error, error) {
	switch mode {
	case "honeycomb":
		slog.Info("Tracing with Honeycomb")
		return InitOTelHNY()
	case "otlp":
		slog.Info("Tracing with OTLP/HTTP")
		return InitOTelOTLP(ctx)
	default:
		slog.Debug("Tracing disabled", slog.String("mode", mode))
		return func(context.Context) error { return nil }, nil
	}
}
