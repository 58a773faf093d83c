package answer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
	"github.com/compozy/helpdesk/pkg/logger"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var (
	metricsOnce      sync.Once
	metricsMu        sync.Mutex
	stageDuration    metric.Float64Histogram
	answersTotal     metric.Int64Counter
	retrievedContext metric.Int64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("helpdesk.answer")
		var err error
		stageDuration, err = meter.Float64Histogram(
			metrics.MetricNameWithSubsystem("answer", "stage_duration_seconds"),
			metric.WithDescription("Latency of each answer pipeline stage"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(metrics.StageDurationBuckets...),
		)
		if err != nil {
			logger.Error("Failed to create answer stage histogram", "error", err)
		}
		answersTotal, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("answer", "requests_total"),
			metric.WithDescription("Answer pipeline runs by outcome"),
		)
		if err != nil {
			logger.Error("Failed to create answer requests counter", "error", err)
		}
		retrievedContext, err = meter.Int64Histogram(
			metrics.MetricNameWithSubsystem("answer", "context_chunks"),
			metric.WithDescription("Chunks placed into the grounded prompt"),
			metric.WithExplicitBucketBoundaries(metrics.ResultCountBuckets...),
		)
		if err != nil {
			logger.Error("Failed to create answer context histogram", "error", err)
		}
	})
}

func recordStage(ctx context.Context, stage string, start time.Time, err error) {
	initMetrics()
	if stageDuration == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	stageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

func recordAnswer(ctx context.Context, err error) {
	initMetrics()
	if answersTotal == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	answersTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordContextChunks(ctx context.Context, n int) {
	initMetrics()
	if retrievedContext == nil {
		return
	}
	retrievedContext.Record(ctx, int64(n))
}

// ResetMetricsForTesting drops cached instruments so a test meter provider
// is picked up on next use.
func ResetMetricsForTesting() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsOnce = sync.Once{}
	stageDuration = nil
	answersTotal = nil
	retrievedContext = nil
}
