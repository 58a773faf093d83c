package llmadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type recordingModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *recordingModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	return m.resp, m.err
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainAdapter_ConvertMessages(t *testing.T) {
	adapter := &LangChainAdapter{}

	t.Run("Should convert messages with system prompt", func(t *testing.T) {
		req := LLMRequest{
			SystemPrompt: "You are a helpful assistant",
			Messages: []Message{
				{Role: RoleUser, Content: "Hello"},
				{Role: RoleAssistant, Content: "Hi there!"},
			},
		}

		messages := adapter.convertMessages(&req)

		assert.Len(t, messages, 3)
		assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
		assert.Equal(t, "You are a helpful assistant", messages[0].Parts[0].(llms.TextContent).Text)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)
		assert.Equal(t, "Hello", messages[1].Parts[0].(llms.TextContent).Text)
		assert.Equal(t, llms.ChatMessageTypeAI, messages[2].Role)
		assert.Equal(t, "Hi there!", messages[2].Parts[0].(llms.TextContent).Text)
	})

	t.Run("Should handle messages without system prompt", func(t *testing.T) {
		messages := adapter.convertMessages(UserPrompt("", "Test message"))

		assert.Len(t, messages, 1)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].Role)
	})
}

func TestLangChainAdapter_GenerateContent(t *testing.T) {
	t.Run("Should pass options and return the first choice", func(t *testing.T) {
		// Arrange
		model := &recordingModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
			Content:        "answer",
			GenerationInfo: map[string]any{"PromptTokens": 10, "CompletionTokens": 5, "TotalTokens": 15},
		}}}}
		adapter, err := WrapModel(model, ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
		require.NoError(t, err)
		req := UserPrompt("system", "question")
		req.Options = CallOptions{Temperature: 0.2, MaxTokens: 128, UseJSONMode: true}

		// Act
		resp, err := adapter.GenerateContent(context.Background(), req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "answer", resp.Content)
		assert.Equal(t, "answer", resp.String())
		require.NotNil(t, resp.Usage)
		assert.Equal(t, 15, resp.Usage.TotalTokens)
		assert.InDelta(t, 0.2, model.opts.Temperature, 1e-9)
		assert.Equal(t, 128, model.opts.MaxTokens)
		assert.True(t, model.opts.JSONMode)
		assert.Len(t, model.messages, 2)
	})

	t.Run("Should use the provider temperature when the request has none", func(t *testing.T) {
		model := &recordingModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "x"}}}}
		adapter, err := WrapModel(model, ProviderConfig{Temperature: 0.7})
		require.NoError(t, err)

		_, err = adapter.GenerateContent(context.Background(), UserPrompt("", "q"))

		require.NoError(t, err)
		assert.InDelta(t, 0.7, model.opts.Temperature, 1e-9)
		assert.False(t, model.opts.JSONMode)
	})

	t.Run("Should fail on empty responses", func(t *testing.T) {
		adapter, err := WrapModel(&recordingModel{resp: &llms.ContentResponse{}}, ProviderConfig{})
		require.NoError(t, err)

		_, err = adapter.GenerateContent(context.Background(), UserPrompt("", "q"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response from LLM")
	})

	t.Run("Should wrap provider errors", func(t *testing.T) {
		upstream := errors.New("429 rate limited")
		adapter, err := WrapModel(
			&recordingModel{err: upstream},
			ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
		)
		require.NoError(t, err)

		_, err = adapter.GenerateContent(context.Background(), UserPrompt("", "q"))

		require.ErrorIs(t, err, upstream)
		assert.Contains(t, err.Error(), "openai gpt-4o-mini")
	})

	t.Run("Should reject a nil request", func(t *testing.T) {
		adapter, err := WrapModel(&recordingModel{}, ProviderConfig{})
		require.NoError(t, err)

		_, err = adapter.GenerateContent(context.Background(), nil)

		require.Error(t, err)
	})
}

func TestProviderConfig_CreateLLM(t *testing.T) {
	t.Run("Should require an API key for openai", func(t *testing.T) {
		_, err := (&ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}).CreateLLM()

		require.ErrorIs(t, err, errMissingAPIKey)
	})

	t.Run("Should build the openai client when a key is present", func(t *testing.T) {
		model, err := (&ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"}).CreateLLM()

		require.NoError(t, err)
		assert.NotNil(t, model)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := (&ProviderConfig{Provider: "bogus"}).CreateLLM()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported llm provider")
	})
}

func TestMockLLM(t *testing.T) {
	t.Run("Should echo the last user prompt", func(t *testing.T) {
		adapter, err := NewLangChainAdapter(&ProviderConfig{Provider: ProviderMock, Model: "mock"})
		require.NoError(t, err)

		resp, err := adapter.GenerateContent(context.Background(), UserPrompt("sys", "  where is the library? "))

		require.NoError(t, err)
		assert.Equal(t, "Mock response for: where is the library?", resp.Content)
	})

	t.Run("Should return a subject and body object in JSON mode", func(t *testing.T) {
		adapter, err := NewLangChainAdapter(&ProviderConfig{Provider: ProviderMock})
		require.NoError(t, err)
		req := UserPrompt("sys", "write an email")
		req.Options.UseJSONMode = true

		resp, err := adapter.GenerateContent(context.Background(), req)

		require.NoError(t, err)
		assert.Contains(t, resp.Content, `"subject"`)
		assert.Contains(t, resp.Content, `"body"`)
	})

	t.Run("Should honor canceled contexts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewMockLLM("mock").GenerateContent(ctx, nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}
