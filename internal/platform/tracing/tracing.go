// Package tracing configures the OpenTelemetry tracer provider used by the
// review service and the HTTP layer.
package tracing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/phrazzld/kioku-api/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultServiceName = "kioku-api"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Provider bundles the configured tracer provider with its shutdown hook.
type Provider struct {
	trace.TracerProvider
	Shutdown ShutdownFunc
}

// Setup builds a tracer provider from cfg and installs it, together with the
// W3C trace context propagator, as the global provider. A disabled config or
// the "none" exporter yields a no-op provider.
func Setup(cfg config.TracingConfig, logger *slog.Logger) (*Provider, error) {
	return setup(cfg, os.Stdout, logger)
}

func setup(cfg config.TracingConfig, out io.Writer, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	exporter := strings.ToLower(strings.TrimSpace(cfg.Exporter))
	if !cfg.Enabled || exporter == "none" {
		p := &Provider{
			TracerProvider: noop.NewTracerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}
		otel.SetTracerProvider(p.TracerProvider)
		return p, nil
	}

	var exp sdktrace.SpanExporter
	switch exporter {
	case "", "stdout":
		e, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		exp = e
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing initialized",
		slog.String("service", serviceName),
		slog.String("exporter", "stdout"))
	return &Provider{TracerProvider: tp, Shutdown: tp.Shutdown}, nil
}
