// Package telemetry installs the process tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Options struct {
	Stdout      bool
	Writer      io.Writer
	ServiceName string
}

type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider exporting spans to Writer
// (stdout when nil). With Stdout off it installs nothing and spans stay
// no-ops.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Stdout {
		return func(context.Context) error { return nil }, nil
	}
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: exporter: %w", err)
	}
	name := opts.ServiceName
	if name == "" {
		name = "insider-ingest"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
