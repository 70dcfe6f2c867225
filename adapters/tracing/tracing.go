// Package tracing configures OpenTelemetry trace export. Invocation spans
// are started by the processor chain on the global tracer provider.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures trace export.
type Config struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables export.
	Endpoint string
	Service  string
	Insecure bool

	// SampleRatio is the fraction of traces kept, 1 when zero.
	SampleRatio float64
}

// Setup installs a tracer provider exporting to cfg.Endpoint and returns its
// shutdown function. With no endpoint nothing is installed and the returned
// shutdown is a no-op.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := NewProvider(exp, cfg)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider batching to exp.
func NewProvider(exp sdktrace.SpanExporter, cfg Config) *sdktrace.TracerProvider {
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}
	service := cfg.Service
	if service == "" {
		service = "resttree"
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
}
