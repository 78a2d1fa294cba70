package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/firekit/logger"
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
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
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

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide Metrics instruments, created
// on first use from the global meter provider. Without InitMeter the
// global provider is a no-op, so recording is free.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(Meter(defaultTracerName))
		if err != nil {
			m, _ = NewMetrics(noop.NewMeterProvider().Meter(defaultTracerName))
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// Metrics holds metric instruments for the database and storage clients.
type Metrics struct {
	streamEvents     metric.Int64Counter
	streamReconnects metric.Int64Counter
	queryDuration    metric.Float64Histogram
	uploadTotal      metric.Int64Counter
	uploadBytes      metric.Int64Counter
	errorTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	streamEvents, err := meter.Int64Counter("rtdb.stream.events",
		metric.WithDescription("Stream events processed, by path and event type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rtdb.stream.events counter: %w", err)
	}

	streamReconnects, err := meter.Int64Counter("rtdb.stream.reconnects",
		metric.WithDescription("Stream reconnect attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rtdb.stream.reconnects counter: %w", err)
	}

	queryDuration, err := meter.Float64Histogram("rtdb.query.duration",
		metric.WithDescription("Duration of one-shot queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rtdb.query.duration histogram: %w", err)
	}

	uploadTotal, err := meter.Int64Counter("storage.upload.total",
		metric.WithDescription("Finished upload tasks by terminal state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.upload.total counter: %w", err)
	}

	uploadBytes, err := meter.Int64Counter("storage.upload.bytes",
		metric.WithDescription("Bytes uploaded"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.upload.bytes counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		streamEvents:     streamEvents,
		streamReconnects: streamReconnects,
		queryDuration:    queryDuration,
		uploadTotal:      uploadTotal,
		uploadBytes:      uploadBytes,
		errorTotal:       errorTotal,
	}, nil
}

// RecordStreamEvent records one processed stream event.
func (m *Metrics) RecordStreamEvent(ctx context.Context, path, eventType string) {
	m.streamEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("event_type", eventType),
	))
}

// RecordStreamReconnect records a stream reconnect attempt.
func (m *Metrics) RecordStreamReconnect(ctx context.Context, path string) {
	m.streamReconnects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
	))
}

// RecordQuery records a completed one-shot query.
func (m *Metrics) RecordQuery(ctx context.Context, path, status string, duration time.Duration) {
	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("status", status),
	))
}

// RecordUpload records a finished upload task.
func (m *Metrics) RecordUpload(ctx context.Context, bucket, state string, bytes int64) {
	attrs := metric.WithAttributes(
		attribute.String("bucket", bucket),
		attribute.String("state", state),
	)
	m.uploadTotal.Add(ctx, 1, attrs)
	if bytes > 0 {
		m.uploadBytes.Add(ctx, bytes, metric.WithAttributes(
			attribute.String("bucket", bucket),
		))
	}
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
