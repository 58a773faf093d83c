package llmadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChainAdapter adapts langchaingo to our LLMClient interface
type LangChainAdapter struct {
	model    llms.Model
	provider ProviderConfig
}

// NewLangChainAdapter creates a provider-backed adapter.
func NewLangChainAdapter(config *ProviderConfig) (*LangChainAdapter, error) {
	if config == nil {
		return nil, errors.New("llm provider config is required")
	}
	model, err := config.CreateLLM()
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}
	return &LangChainAdapter{model: model, provider: *config}, nil
}

// WrapModel creates an adapter around an existing langchaingo model.
func WrapModel(model llms.Model, config ProviderConfig) (*LangChainAdapter, error) {
	if model == nil {
		return nil, errors.New("llm model is required")
	}
	return &LangChainAdapter{model: model, provider: config}, nil
}

// GenerateContent implements LLMClient interface
func (a *LangChainAdapter) GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	if req == nil {
		return nil, errors.New("llm request is required")
	}
	messages := a.convertMessages(req)
	options := a.buildCallOptions(req)
	response, err := a.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: generate content: %w", a.provider.Provider, a.provider.Model, err)
	}
	return a.convertResponse(response)
}

// Close releases provider resources. langchaingo clients hold none.
func (a *LangChainAdapter) Close() error {
	return nil
}

func (a *LangChainAdapter) convertMessages(req *LLMRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(a.mapMessageRole(msg.Role), msg.Content))
	}
	return messages
}

func (a *LangChainAdapter) mapMessageRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (a *LangChainAdapter) buildCallOptions(req *LLMRequest) []llms.CallOption {
	var options []llms.CallOption
	temperature := req.Options.Temperature
	if temperature == 0 {
		temperature = a.provider.Temperature
	}
	if temperature > 0 {
		options = append(options, llms.WithTemperature(temperature))
	}
	if req.Options.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(int(req.Options.MaxTokens)))
	}
	if req.Options.UseJSONMode {
		options = append(options, llms.WithJSONMode())
	}
	return options
}

func (a *LangChainAdapter) convertResponse(resp *llms.ContentResponse) (*LLMResponse, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, errors.New("empty response from LLM")
	}
	choice := resp.Choices[0]
	return &LLMResponse{
		Content: choice.Content,
		Usage:   usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

func usageFromGenerationInfo(info map[string]any) *Usage {
	if len(info) == 0 {
		return nil
	}
	usage := &Usage{
		PromptTokens:     intValue(info["PromptTokens"]),
		CompletionTokens: intValue(info["CompletionTokens"]),
		TotalTokens:      intValue(info["TotalTokens"]),
	}
	if *usage == (Usage{}) {
		return nil
	}
	return usage
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
