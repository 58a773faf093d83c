package llmadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

var errMissingAPIKey = errors.New("api key is required")

// ProviderConfig selects and configures the generation model.
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// CreateLLM builds the langchaingo model for the configured provider.
func (p *ProviderConfig) CreateLLM() (llms.Model, error) {
	switch strings.ToLower(p.Provider) {
	case ProviderOpenAI, "":
		return createOpenAILLM(p)
	case ProviderMock:
		return NewMockLLM(p.Model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", p.Provider)
	}
}

func createOpenAILLM(p *ProviderConfig) (llms.Model, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", errMissingAPIKey)
	}
	opts := []openai.Option{
		openai.WithModel(p.Model),
		openai.WithToken(p.APIKey),
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	return openai.New(opts...)
}

// MockLLM is an offline model that answers deterministically. In JSON mode it
// returns an object with subject and body keys.
type MockLLM struct {
	model string
}

// NewMockLLM creates a new mock LLM
func NewMockLLM(model string) *MockLLM {
	return &MockLLM{model: model}
}

// GenerateContent implements the LLM interface with predictable responses
func (m *MockLLM) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	var prompt string
	for _, message := range messages {
		if message.Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range message.Parts {
			if textPart, ok := part.(llms.TextContent); ok {
				prompt = textPart.Text
			}
		}
	}
	text := fmt.Sprintf("Mock response for: %s", strings.TrimSpace(prompt))
	if opts.JSONMode {
		text = `{"subject": "Information request", "body": "Dear Student Services Office,\n\nPlease advise."}`
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}, nil
}

// Call implements the legacy Call interface
func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
