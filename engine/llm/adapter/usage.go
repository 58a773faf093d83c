package llmadapter

import (
	"context"
	"time"
)

// UsageEvent describes one completed generation call.
type UsageEvent struct {
	Component string
	Provider  string
	Model     string
	Usage     *Usage
	Latency   time.Duration
	Err       error
}

// UsageRecorder receives a UsageEvent after every call made through an
// instrumented client.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, event UsageEvent)
}

type instrumentedClient struct {
	next      LLMClient
	recorder  UsageRecorder
	component string
	provider  ProviderConfig
}

// Instrument reports every call made through client to recorder, labelled
// with component. A nil recorder returns client unchanged.
func Instrument(client LLMClient, recorder UsageRecorder, component string, provider ProviderConfig) LLMClient {
	if recorder == nil || client == nil {
		return client
	}
	return &instrumentedClient{next: client, recorder: recorder, component: component, provider: provider}
}

func (c *instrumentedClient) GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	start := time.Now()
	resp, err := c.next.GenerateContent(ctx, req)
	event := UsageEvent{
		Component: c.component,
		Provider:  c.provider.Provider,
		Model:     c.provider.Model,
		Latency:   time.Since(start),
		Err:       err,
	}
	if resp != nil {
		event.Usage = resp.Usage
	}
	c.recorder.RecordUsage(ctx, event)
	return resp, err
}

func (c *instrumentedClient) Close() error {
	return c.next.Close()
}
