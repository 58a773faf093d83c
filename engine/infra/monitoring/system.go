package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/version"
)

var (
	buildInfo          metric.Float64Gauge
	uptimeGauge        metric.Float64ObservableGauge
	uptimeRegistration metric.Registration
	startTime          time.Time
	systemInitOnce     sync.Once
	systemResetMutex   sync.Mutex
)

func initSystemMetrics(meter metric.Meter) {
	systemInitOnce.Do(func() {
		var err error
		buildInfo, err = meter.Float64Gauge(
			metrics.MetricName("build_info"),
			metric.WithDescription("Build information of the running helpdesk binary (value=1)"),
		)
		if err != nil {
			logger.Error("Failed to create build info gauge", "error", err)
		}
		uptimeGauge, err = meter.Float64ObservableGauge(
			metrics.MetricName("uptime_seconds"),
			metric.WithDescription("Seconds since the helpdesk server started"),
		)
		if err != nil {
			logger.Error("Failed to create uptime gauge", "error", err)
			return
		}
		startTime = time.Now()
		uptimeRegistration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveFloat64(uptimeGauge, time.Since(startTime).Seconds())
			return nil
		}, uptimeGauge)
		if err != nil {
			logger.Error("Failed to register uptime callback", "error", err)
		}
	})
}

func buildAttributes(info version.Info) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("version", info.Version),
		attribute.String("commit_hash", info.CommitHash),
		attribute.String("build_date", info.BuildDate),
		attribute.String("go_version", runtime.Version()),
	}
}

// InitSystemMetrics registers the uptime gauge and records build info once.
func InitSystemMetrics(ctx context.Context, meter metric.Meter) {
	initSystemMetrics(meter)
	if buildInfo == nil {
		return
	}
	info := version.Get()
	buildInfo.Record(ctx, 1, metric.WithAttributes(buildAttributes(info)...))
	logger.FromContext(ctx).Debug("System metrics initialized", "version", info.Version, "commit", info.CommitHash)
}

// ResetSystemMetricsForTesting resets the system metrics initialization state for testing
func ResetSystemMetricsForTesting() {
	systemResetMutex.Lock()
	defer systemResetMutex.Unlock()
	if uptimeRegistration != nil {
		if err := uptimeRegistration.Unregister(); err != nil {
			logger.Error("Failed to unregister uptime callback during reset", "error", err)
		}
		uptimeRegistration = nil
	}
	buildInfo = nil
	uptimeGauge = nil
	startTime = time.Time{}
	systemInitOnce = sync.Once{}
}
