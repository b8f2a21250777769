package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const upstreamMeterName = "github.com/clearskies/clearskies/internal/telemetry"

// UpstreamMetrics records calls made to upstream data providers
// (the prediction service and OpenAQ).
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheResult     metric.Int64Counter
}

// NewUpstreamMetrics creates upstream metrics on the global meter provider.
func NewUpstreamMetrics() (*UpstreamMetrics, error) {
	return NewUpstreamMetricsWithMeter(otel.Meter(upstreamMeterName))
}

// NewUpstreamMetricsWithMeter creates upstream metrics on the given meter.
func NewUpstreamMetricsWithMeter(meter metric.Meter) (*UpstreamMetrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of upstream provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"upstream.request.total",
		metric.WithDescription("Total number of upstream provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheResult, err := meter.Int64Counter(
		"upstream.cache.lookups",
		metric.WithDescription("Cache lookups in front of upstream providers"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheResult:     cacheResult,
	}, nil
}

// ObserveRequest records one upstream call. A zero statusCode means no
// response was received.
func (m *UpstreamMetrics) ObserveRequest(ctx context.Context, provider string, statusCode int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("http.status_code", strconv.Itoa(statusCode)),
	}
	if err != nil || statusCode >= 400 {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Metrics must be recorded even if the request context was cancelled
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// ObserveCache records a cache lookup for a data source.
func (m *UpstreamMetrics) ObserveCache(ctx context.Context, source string, hit bool) {
	m.cacheResult.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("hit", hit),
	))
}
