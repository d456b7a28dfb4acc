// Package tracing wires the optional OTLP trace exporter. With no endpoint
// configured the server runs with tracing fully disabled.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init installs a global tracer provider exporting over OTLP HTTP to the
// configured endpoint. An empty endpoint disables tracing and returns a
// no-op shutdown func. The returned shutdown flushes pending spans and must
// be called before exit.
func Init(ctx context.Context, logger *slog.Logger, serviceName, environment, endpoint string) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if endpoint == "" {
		logger.Info("tracing disabled: no OTLP endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing initialized",
		slog.String("endpoint", endpoint),
		slog.String("service", serviceName),
	)
	return tp.Shutdown, nil
}
