package llmadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUsage struct {
	events []UsageEvent
}

func (r *recordingUsage) RecordUsage(_ context.Context, event UsageEvent) {
	r.events = append(r.events, event)
}

type stubClient struct {
	resp *LLMResponse
	err  error
}

func (s *stubClient) GenerateContent(context.Context, *LLMRequest) (*LLMResponse, error) {
	return s.resp, s.err
}

func (s *stubClient) Close() error { return nil }

func TestInstrument(t *testing.T) {
	provider := ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}

	t.Run("Should report usage of successful calls", func(t *testing.T) {
		recorder := &recordingUsage{}
		usage := &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
		client := Instrument(&stubClient{resp: &LLMResponse{Content: "ok", Usage: usage}}, recorder, "answer", provider)

		resp, err := client.GenerateContent(context.Background(), UserPrompt("", "q"))

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		require.Len(t, recorder.events, 1)
		event := recorder.events[0]
		assert.Equal(t, "answer", event.Component)
		assert.Equal(t, ProviderOpenAI, event.Provider)
		assert.Equal(t, "gpt-4o-mini", event.Model)
		assert.Same(t, usage, event.Usage)
		assert.NoError(t, event.Err)
	})

	t.Run("Should report failures", func(t *testing.T) {
		recorder := &recordingUsage{}
		boom := errors.New("boom")
		client := Instrument(&stubClient{err: boom}, recorder, "escalation", provider)

		_, err := client.GenerateContent(context.Background(), UserPrompt("", "q"))

		require.ErrorIs(t, err, boom)
		require.Len(t, recorder.events, 1)
		assert.ErrorIs(t, recorder.events[0].Err, boom)
		assert.Nil(t, recorder.events[0].Usage)
	})

	t.Run("Should return the client untouched without a recorder", func(t *testing.T) {
		base := &stubClient{}

		assert.Same(t, base, Instrument(base, nil, "answer", provider))
	})
}
