package ratelimit

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
)

var (
	blockedRequests metric.Int64Counter
	storeErrors     metric.Int64Counter
	metricsOnce     sync.Once
)

// InitMetrics registers the limiter counters on meter. Later calls are no-ops.
func InitMetrics(meter metric.Meter) error {
	var err error
	metricsOnce.Do(func() {
		blockedRequests, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("http", "rate_limit_blocks_total"),
			metric.WithDescription("Requests rejected with 429 by the rate limiter"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return
		}
		storeErrors, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("http", "rate_limit_store_errors_total"),
			metric.WithDescription("Limiter store failures; the request was let through"),
			metric.WithUnit("1"),
		)
	})
	return err
}

func recordBlocked(ctx context.Context, route, driver string) {
	if blockedRequests == nil {
		return
	}
	blockedRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("driver", driver),
	))
}

func recordStoreError(ctx context.Context, driver string) {
	if storeErrors == nil {
		return
	}
	storeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("driver", driver)))
}
