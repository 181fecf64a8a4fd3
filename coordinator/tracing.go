package coordinator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracingConfig configures the coordinator's span emission. A disabled
// config returns a zero-overhead no-op tracer.
type TracingConfig struct {
	Enabled bool
	Exporter string // "stdout" or "none"
}

// NewTracer builds a trace.Tracer per cfg. boot.Sequencer builds one and hands
// it to the Coordinator, which opens a span per dispatched action; the boot
// steps themselves emit no spans.
func NewTracer(cfg TracingConfig) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer("panecore-noop"), func(context.Context) error { return nil }, nil
	}

	var exporter sdktrace.SpanExporter
	if cfg.Exporter == "stdout" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, err
		}
		exporter = exp
	}

	opts := []sdktrace.TracerProviderOption{}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider.Tracer("panecore"), provider.Shutdown, nil
}
