package vectordb

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
)

var (
	vectorMetricsOnce   sync.Once
	vectorMetricsErr    error
	vectorSearchLatency metric.Float64Histogram
	vectorResultsCount  metric.Float64Histogram
	vectorTopScore      metric.Float64Histogram
	vectorErrorsTotal   metric.Int64Counter
)

// ensureVectorMetrics lazily initializes metric instruments used by vector stores.
func ensureVectorMetrics() error {
	vectorMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("helpdesk.knowledge.vector")
		vectorMetricsErr = initVectorInstruments(meter)
	})
	return vectorMetricsErr
}

func initVectorInstruments(meter metric.Meter) error {
	var err error
	vectorSearchLatency, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("vectordb", "similarity_search_seconds"),
		metric.WithDescription("Vector similarity search latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2),
	)
	if err != nil {
		return err
	}
	vectorResultsCount, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("vectordb", "similarity_results_per_search"),
		metric.WithDescription("Number of results returned per search"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.ResultCountBuckets...),
	)
	if err != nil {
		return err
	}
	vectorTopScore, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("vectordb", "similarity_top_score"),
		metric.WithDescription("Score of the best match"),
		metric.WithExplicitBucketBoundaries(0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	)
	if err != nil {
		return err
	}
	vectorErrorsTotal, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("vectordb", "store_errors_total"),
		metric.WithDescription("Vector store operation errors"),
	)
	return err
}

func recordVectorSearch(ctx context.Context, provider string, topK int, duration time.Duration, matches []Match) {
	if err := ensureVectorMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Int("top_k", topK),
	)
	vectorSearchLatency.Record(ctx, duration.Seconds(), attrs)
	vectorResultsCount.Record(ctx, float64(len(matches)), attrs)
	if len(matches) > 0 {
		vectorTopScore.Record(ctx, matches[0].Score, attrs)
	}
}

func recordVectorError(ctx context.Context, operation string, err error) {
	if ensureVectorMetrics() != nil {
		return
	}
	kind := "request"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	case errors.Is(err, context.Canceled):
		kind = "canceled"
	case errors.Is(err, errQdrantNotFound):
		kind = "not_found"
	}
	vectorErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("error_type", kind),
	))
}
