package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compozy/helpdesk/engine/infra/monitoring/metrics"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
)

const (
	labelValueUnknown = "unknown"

	labelComponent = "component"
	labelProvider  = "provider"
	labelModel     = "model"
	labelOutcome   = "outcome"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// LLMUsageMetrics records token usage and latency of generation calls.
type LLMUsageMetrics struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	calls            metric.Int64Counter
	latency          metric.Float64Histogram
}

var _ llmadapter.UsageRecorder = (*LLMUsageMetrics)(nil)

func createInt64Counter(meter metric.Meter, name, description string) (metric.Int64Counter, error) {
	counter, err := meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("create counter %q: %w", name, err)
	}
	return counter, nil
}

// NewLLMUsageMetrics creates the instruments on meter. A nil meter yields a
// recorder that drops everything.
func NewLLMUsageMetrics(meter metric.Meter) (*LLMUsageMetrics, error) {
	if meter == nil {
		return nil, nil
	}
	promptTokens, err := createInt64Counter(
		meter,
		metrics.MetricNameWithSubsystem("llm", "prompt_tokens_total"),
		"Total prompt tokens consumed by generation calls",
	)
	if err != nil {
		return nil, err
	}
	completionTokens, err := createInt64Counter(
		meter,
		metrics.MetricNameWithSubsystem("llm", "completion_tokens_total"),
		"Total completion tokens produced by generation calls",
	)
	if err != nil {
		return nil, err
	}
	calls, err := createInt64Counter(
		meter,
		metrics.MetricNameWithSubsystem("llm", "calls_total"),
		"Total generation calls by outcome",
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("llm", "call_duration_seconds"),
		metric.WithDescription("Latency of generation calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.StageDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}
	return &LLMUsageMetrics{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		calls:            calls,
		latency:          latency,
	}, nil
}

// RecordUsage implements llmadapter.UsageRecorder.
func (m *LLMUsageMetrics) RecordUsage(ctx context.Context, event llmadapter.UsageEvent) {
	if m == nil {
		return
	}
	attrs := usageAttributes(event.Component, event.Provider, event.Model)
	outcome := outcomeSuccess
	if event.Err != nil {
		outcome = outcomeFailure
	}
	outcomeAttrs := append(attrs[:len(attrs):len(attrs)], attribute.String(labelOutcome, outcome))
	m.calls.Add(ctx, 1, metric.WithAttributes(outcomeAttrs...))
	m.latency.Record(ctx, event.Latency.Seconds(), metric.WithAttributes(outcomeAttrs...))
	if event.Err != nil || event.Usage == nil {
		return
	}
	if event.Usage.PromptTokens > 0 {
		m.promptTokens.Add(ctx, int64(event.Usage.PromptTokens), metric.WithAttributes(attrs...))
	}
	if event.Usage.CompletionTokens > 0 {
		m.completionTokens.Add(ctx, int64(event.Usage.CompletionTokens), metric.WithAttributes(attrs...))
	}
}

func usageAttributes(component, provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(labelComponent, normalizeLabelValue(component)),
		attribute.String(labelProvider, normalizeLabelValue(provider)),
		attribute.String(labelModel, normalizeLabelValue(model)),
	}
}

func normalizeLabelValue(value string) string {
	if value == "" {
		return labelValueUnknown
	}
	return value
}
