package answer

import (
	"context"
	"errors"
	"strings"

	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/logger"
)

// Rewriter asks the generation model to restate a query for retrieval.
type Rewriter struct {
	client       llmadapter.LLMClient
	systemPrompt string
	temperature  float64
}

type RewriterOption func(*Rewriter)

// WithRewriteTemperature overrides the provider temperature for rewrites.
func WithRewriteTemperature(t float64) RewriterOption {
	return func(r *Rewriter) {
		r.temperature = t
	}
}

func NewRewriter(client llmadapter.LLMClient, opts ...RewriterOption) (*Rewriter, error) {
	if client == nil {
		return nil, errors.New("answer: rewriter llm client is required")
	}
	r := &Rewriter{client: client, systemPrompt: rewriteSystemPrompt}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rewrite returns the model's restatement of query, or query itself when the
// model answers with blank text.
func (r *Rewriter) Rewrite(ctx context.Context, query string) (string, error) {
	req := llmadapter.UserPrompt(r.systemPrompt, query)
	req.Options.Temperature = r.temperature
	resp, err := r.client.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}
	rewritten := strings.TrimSpace(resp.String())
	if rewritten == "" {
		logger.FromContext(ctx).Debug("Rewriter returned blank text, keeping original query")
		return query, nil
	}
	return rewritten, nil
}
