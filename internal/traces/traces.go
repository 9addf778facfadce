// Package traces wires OpenTelemetry tracing with an OTLP gRPC exporter.
package traces

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/pulseboard/pulseboard"

// Init installs the global tracer provider. With an empty endpoint,
// tracing stays on the default no-op provider and the returned shutdown
// function does nothing. Call the shutdown function when the server stops
// so buffered spans get flushed.
func Init(ctx context.Context, otlpEndpoint string, logger *slog.Logger) (func(context.Context) error, error) {
	if otlpEndpoint == "" {
		logger.Info("tracing disabled (no OTEL_EXPORTER_OTLP_ENDPOINT set)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("pulseboard"),
			semconv.ServiceVersion("0.1.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "endpoint", otlpEndpoint)
	return tp.Shutdown, nil
}

// StartSpan opens a span on Pulseboard's tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// Attribute helpers so span decoration stays consistent across packages.

func CustomerID(id int64) attribute.KeyValue {
	return attribute.Int64("customer.id", id)
}

func Segment(segment string) attribute.KeyValue {
	return attribute.String("customer.segment", segment)
}

func EventType(t string) attribute.KeyValue {
	return attribute.String("event.type", t)
}

func Score(score float64) attribute.KeyValue {
	return attribute.Float64("health.score", score)
}

func Risk(risk string) attribute.KeyValue {
	return attribute.String("health.risk", risk)
}
