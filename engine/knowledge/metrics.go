package knowledge

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
)

var (
	metricsOnce           sync.Once
	metricsMu             sync.Mutex
	metricsInitErr        error
	ingestDurationHist    metric.Float64Histogram
	chunkCounter          metric.Int64Counter
	documentCounter       metric.Int64Counter
	queryLatencyHist      metric.Float64Histogram
	retrievalEmptyCounter metric.Int64Counter
)

func RecordIngestDuration(ctx context.Context, collection string, d time.Duration) {
	if err := ensureMetrics(); err != nil || ingestDurationHist == nil {
		return
	}
	ingestDurationHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("collection", collection)))
}

func RecordIngestChunks(ctx context.Context, collection string, chunks int) {
	if chunks <= 0 {
		return
	}
	if err := ensureMetrics(); err != nil || chunkCounter == nil {
		return
	}
	chunkCounter.Add(ctx, int64(chunks), metric.WithAttributes(attribute.String("collection", collection)))
}

// RecordIngestDocument counts a processed document by outcome (ok, skipped, failed).
func RecordIngestDocument(ctx context.Context, collection, outcome string) {
	if err := ensureMetrics(); err != nil || documentCounter == nil {
		return
	}
	documentCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("outcome", outcome),
	))
}

func RecordQueryLatency(ctx context.Context, collection string, d time.Duration) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("collection", collection)))
}

func RecordRetrievalEmpty(ctx context.Context, collection string) {
	if err := ensureMetrics(); err != nil || retrievalEmptyCounter == nil {
		return
	}
	retrievalEmptyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

func ResetMetricsForTesting() {
	metricsMu.Lock()
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	ingestDurationHist = nil
	chunkCounter = nil
	documentCounter = nil
	queryLatencyHist = nil
	retrievalEmptyCounter = nil
	metricsMu.Unlock()
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("helpdesk.knowledge")
		if err := initIngestMetrics(meter); err != nil {
			metricsInitErr = err
			return
		}
		if err := initRetrievalMetrics(meter); err != nil {
			metricsInitErr = err
		}
	})
	return metricsInitErr
}

func initIngestMetrics(meter metric.Meter) error {
	var err error
	ingestDurationHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "ingest_duration_seconds"),
		metric.WithDescription("Latency of document ingestion runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return err
	}
	chunkCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "chunks_total"),
		metric.WithDescription("Number of chunks persisted by ingestion"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	documentCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "documents_total"),
		metric.WithDescription("Documents processed by ingestion, by outcome"),
		metric.WithUnit("1"),
	)
	return err
}

func initRetrievalMetrics(meter metric.Meter) error {
	var err error
	queryLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "query_latency_seconds"),
		metric.WithDescription("Latency of retrieval queries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5),
	)
	if err != nil {
		return err
	}
	retrievalEmptyCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "retrieval_empty_total"),
		metric.WithDescription("Retrievals that returned no chunks"),
		metric.WithUnit("1"),
	)
	return err
}
