package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/networkable/logger"
)

// InitMeter initializes the global OpenTelemetry meter provider. The returned
// provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names.
const (
	MetricRequests       = "http.client.requests"
	MetricDuration       = "http.client.request.duration"
	MetricActiveRequests = "http.client.active_requests"
	MetricErrors         = "http.client.errors"
)

// ClientMetrics holds the instruments describing outbound HTTP exchanges.
type ClientMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	errors   metric.Int64Counter
}

// NewClientMetrics creates the instruments on meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Completed outbound requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRequests, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of outbound requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricActiveRequests,
		metric.WithDescription("Outbound requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricActiveRequests, err)
	}

	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Failed outbound requests by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	return &ClientMetrics{
		requests: requests,
		duration: duration,
		active:   active,
		errors:   errs,
	}, nil
}

// RecordStart marks a request as in flight.
func (m *ClientMetrics) RecordStart(ctx context.Context, method, host string) {
	m.active.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("server.address", host),
	))
}

// RecordEnd records a finished exchange. status is the response status code,
// or 0 when the exchange failed before a response; errorCode is empty on
// success.
func (m *ClientMetrics) RecordEnd(ctx context.Context, method, host string, status int, errorCode string, d time.Duration) {
	base := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.String("server.address", host),
	}
	m.active.Add(ctx, -1, metric.WithAttributes(base...))

	attrs := append(base, attribute.String("http.response.status_code", strconv.Itoa(status)))
	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))

	if errorCode != "" {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("server.address", host),
			attribute.String("error.type", errorCode),
		))
	}
}
