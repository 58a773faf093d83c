package embedder

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
)

var (
	metricsOnce      sync.Once
	metricsErr       error
	cacheLookups     metric.Int64Counter
	embedLatency     metric.Float64Histogram
	embedErrorsTotal metric.Int64Counter
)

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("helpdesk.knowledge.embedder")
		cacheLookups, metricsErr = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("embedder", "cache_lookups_total"),
			metric.WithDescription("Embedding cache lookups by result"),
		)
		if metricsErr != nil {
			return
		}
		embedLatency, metricsErr = meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem("embedder", "request_seconds"),
			metric.WithDescription("Embedding provider latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(monitoringmetrics.StageDurationBuckets...),
		)
		if metricsErr != nil {
			return
		}
		embedErrorsTotal, metricsErr = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("embedder", "errors_total"),
			metric.WithDescription("Embedding provider errors"),
		)
	})
	return metricsErr
}

func recordCacheLookup(ctx context.Context, provider Provider, hit bool) {
	if ensureMetrics() != nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.String("result", result),
	))
}

func recordGeneration(ctx context.Context, provider Provider, texts int, duration time.Duration) {
	if ensureMetrics() != nil {
		return
	}
	embedLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", string(provider)),
		attribute.Int("texts", texts),
	))
}

func recordError(ctx context.Context, provider Provider) {
	if ensureMetrics() != nil {
		return
	}
	embedErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", string(provider))))
}
