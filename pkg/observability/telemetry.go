// Package observability wires the recorder and repository layers to
// OpenTelemetry metrics, with backend-agnostic configuration.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config configures the observability stack.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // dev, staging, prod

	MetricReader sdkmetric.Reader // pluggable reader (Prometheus, OTLP, stdout, ...)

	Logger *slog.Logger
}

// Telemetry manages the observability stack.
type Telemetry struct {
	MeterProvider metric.MeterProvider
	Metrics       *Metrics
	Logger        *slog.Logger

	shutdown func(context.Context) error
}

// Init initializes OpenTelemetry metrics with graceful degradation: if
// cfg.MetricReader is nil, metrics are disabled and every instrument call
// is a no-op.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tel := &Telemetry{Logger: cfg.Logger}

	if cfg.MetricReader != nil {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(cfg.MetricReader),
		)
		metrics, err := NewMetrics(mp.Meter("eventstore"))
		if err != nil {
			mp.Shutdown(ctx)
			return nil, fmt.Errorf("build metric instruments: %w", err)
		}
		tel.MeterProvider = mp
		tel.Metrics = metrics
		tel.shutdown = mp.Shutdown
		otel.SetMeterProvider(mp)
		cfg.Logger.Info("metrics initialized", "service", cfg.ServiceName)
	} else {
		tel.MeterProvider = sdkmetric.NewMeterProvider()
		metrics, _ := NewMetrics(tel.MeterProvider.Meter("eventstore"))
		tel.Metrics = metrics
		cfg.Logger.Info("metrics disabled (no reader configured)")
	}

	return tel, nil
}

// Shutdown releases the underlying meter provider's resources.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.shutdown != nil {
		t.Logger.Info("shutting down observability")
		return t.shutdown(ctx)
	}
	return nil
}

// Meter returns a meter for name.
func (t *Telemetry) Meter(name string) metric.Meter {
	return t.MeterProvider.Meter(name)
}
