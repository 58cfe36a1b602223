package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported on every span
const ServiceName = "cagedesk"

// Shutdown flushes pending spans
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs an OTLP/HTTP tracer provider when endpoint is set. With an
// empty endpoint the global no-op provider stays in place.
func Setup(ctx context.Context, endpoint, mode string) (Shutdown, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("deployment.environment", mode),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Printf("📡 Tracing enabled, exporting to %s", endpoint)
	return tp.Shutdown, nil
}
