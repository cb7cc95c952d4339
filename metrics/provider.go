// Package metrics provides OpenTelemetry instrumentation, exported in
// Prometheus format, for StorageFacade operations.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics is what a StorageFacade records against: one operation counter
// and one duration histogram, each labeled by operation name and outcome.
type Metrics interface {
	RecordOperation(ctx context.Context, operation, status string)
	RecordDuration(ctx context.Context, operation string, duration time.Duration, status string)
}

// Provider owns the OpenTelemetry meter provider and Prometheus exporter
// backing a Metrics implementation.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
}

// NewProvider creates a Provider with a fresh Prometheus registry.
func NewProvider() (*Provider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Provider{meterProvider: meterProvider, registry: registry}, nil
}

// Handler serves metrics in Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Shutdown flushes and releases the underlying meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

type otelMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
}

// NewMetrics builds a Metrics implementation from p's meter provider,
// namespacing every instrument under "lockbox".
func (p *Provider) NewMetrics() (Metrics, error) {
	meter := p.meterProvider.Meter("lockbox")

	operationCounter, err := meter.Int64Counter(
		"lockbox_operations_total",
		metric.WithDescription("Total number of storage facade operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		"lockbox_operation_duration_seconds",
		metric.WithDescription("Duration of storage facade operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &otelMetrics{operationCounter: operationCounter, durationHisto: durationHisto}, nil
}

func (m *otelMetrics) RecordOperation(ctx context.Context, operation, status string) {
	m.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (m *otelMetrics) RecordDuration(ctx context.Context, operation string, duration time.Duration, status string) {
	m.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// NoOp is a Metrics implementation that records nothing; it is the default
// when a StorageFacade is constructed without metrics.
type NoOp struct{}

func (NoOp) RecordOperation(context.Context, string, string)                   {}
func (NoOp) RecordDuration(context.Context, string, time.Duration, string) {}
