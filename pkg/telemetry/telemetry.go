// Package telemetry configures OpenTelemetry tracing for mysqltopo.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName is the tracer and service name used throughout mysqltopo.
	ServiceName = "mysqltopo"

	serviceVersion  = "1.0.0"
	defaultEndpoint = "localhost:4317"
)

// Exporter kinds accepted in OTEL_EXPORTER.
const (
	ExporterNone    = "none"
	ExporterConsole = "console"
	ExporterOTLP    = "otlp"
	ExporterBoth    = "both"
)

// Setup initializes OpenTelemetry based on environment configuration.
// OTEL_EXPORTER: "none" (default), "console", "otlp", or "both"
// OTEL_ENDPOINT: OTLP endpoint (default: "localhost:4317")
func Setup(ctx context.Context) (trace.Tracer, func(context.Context) error, error) {
	kind := os.Getenv("OTEL_EXPORTER")
	if kind == "" {
		kind = ExporterNone
	}
	endpoint := os.Getenv("OTEL_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporters, err := newExporters(ctx, kind, endpoint)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	for _, exporter := range exporters {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}
	otel.SetTracerProvider(tp)

	return tp.Tracer(ServiceName), tp.Shutdown, nil
}

// newExporters builds the span exporters for kind. With ExporterNone spans are
// still recorded but never leave the process.
func newExporters(ctx context.Context, kind, endpoint string) ([]sdktrace.SpanExporter, error) {
	var console, otlp bool
	switch kind {
	case ExporterNone:
	case ExporterConsole:
		console = true
	case ExporterOTLP:
		otlp = true
	case ExporterBoth:
		console, otlp = true, true
	default:
		return nil, fmt.Errorf("unknown OTEL_EXPORTER %q (want none, console, otlp or both)", kind)
	}

	var exporters []sdktrace.SpanExporter
	if console {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}
	if otlp {
		// otlptracegrpc connects lazily, so an unreachable endpoint is not an error here.
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}
	return exporters, nil
}
