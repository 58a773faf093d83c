package llmadapter

import "context"

// Role constants for message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMRequest represents a request to the LLM, independent of provider
type LLMRequest struct {
	SystemPrompt string
	Messages     []Message
	Options      CallOptions
}

// Message represents a conversation message
type Message struct {
	Role    string
	Content string
}

// CallOptions represents options for the LLM call
type CallOptions struct {
	Temperature float64
	MaxTokens   int32
	UseJSONMode bool
}

// LLMResponse represents the response from the LLM
type LLMResponse struct {
	Content string
	Usage   *Usage
}

// String returns the generated text so a response can be printed or logged
// like the text it carries.
func (r *LLMResponse) String() string {
	if r == nil {
		return ""
	}
	return r.Content
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient is the generation model boundary used by the answer pipeline and
// the escalation composer.
type LLMClient interface {
	GenerateContent(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
	Close() error
}

// UserPrompt builds a single-turn request.
func UserPrompt(systemPrompt, prompt string) *LLMRequest {
	return &LLMRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
	}
}
