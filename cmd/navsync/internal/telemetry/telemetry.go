// Package telemetry wires OpenTelemetry tracing for the navsync CLI.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Config controls tracing.
type Config struct {
	// ServiceName identifies the CLI in exported spans.
	ServiceName string
	// ServiceVersion is the CLI version.
	ServiceVersion string
	// Writer receives pretty-printed spans. Nil disables tracing.
	Writer io.Writer
}

// Init installs a global TracerProvider that writes spans to cfg.Writer.
// The returned shutdown flushes pending spans and must be called before
// exit. With a nil Writer, Init installs nothing and shutdown is a no-op.
func Init(cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.Writer == nil {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Writer),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
