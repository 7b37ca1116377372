package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/resolvekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the resolver's metric instruments.
type Metrics struct {
	compileTotal    metric.Int64Counter
	compileCost     metric.Int64Histogram
	compileDuration metric.Float64Histogram
	resolveTotal    metric.Int64Counter
	resolveDuration metric.Float64Histogram
	resolveActive   metric.Int64UpDownCounter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	compileTotal, err := meter.Int64Counter("compile.total",
		metric.WithDescription("Total number of published resolver compilations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compile.total counter: %w", err)
	}

	compileCost, err := meter.Int64Histogram("compile.cost",
		metric.WithDescription("Size of compiled resolvers in nodes plus conversions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compile.cost histogram: %w", err)
	}

	compileDuration, err := meter.Float64Histogram("compile.duration",
		metric.WithDescription("Duration of resolver compilations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compile.duration histogram: %w", err)
	}

	resolveTotal, err := meter.Int64Counter("resolve.total",
		metric.WithDescription("Total number of resolutions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.total counter: %w", err)
	}

	resolveDuration, err := meter.Float64Histogram("resolve.duration",
		metric.WithDescription("Duration of resolutions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.duration histogram: %w", err)
	}

	resolveActive, err := meter.Int64UpDownCounter("resolve.active",
		metric.WithDescription("Number of resolutions in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve.active gauge: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		compileTotal:    compileTotal,
		compileCost:     compileCost,
		compileDuration: compileDuration,
		resolveTotal:    resolveTotal,
		resolveDuration: resolveDuration,
		resolveActive:   resolveActive,
		errorTotal:      errorTotal,
	}, nil
}

// RecordCompile records one published compilation.
func (m *Metrics) RecordCompile(ctx context.Context, serviceType string, cost int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrServiceType, serviceType))
	m.compileTotal.Add(ctx, 1, attrs)
	m.compileCost.Record(ctx, int64(cost), attrs)
	m.compileDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordResolveStart increments the in-flight resolution count.
func (m *Metrics) RecordResolveStart(ctx context.Context) {
	m.resolveActive.Add(ctx, 1)
}

// RecordResolveEnd decrements in-flight resolutions and records the completed one.
func (m *Metrics) RecordResolveEnd(ctx context.Context, serviceType, engine, status string, d time.Duration) {
	m.resolveActive.Add(ctx, -1)
	m.resolveTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrServiceType, serviceType),
		attribute.String(AttrEngine, engine),
		attribute.String(AttrStatus, status),
	))
	m.resolveDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrServiceType, serviceType),
		attribute.String(AttrEngine, engine),
	))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
