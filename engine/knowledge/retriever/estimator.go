package retriever

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/compozy/helpdesk/pkg/logger"
)

const defaultEncoding = "cl100k_base"

type TokenEstimator interface {
	EstimateTokens(ctx context.Context, text string) int
}

type runeEstimator struct{}

func (r runeEstimator) EstimateTokens(_ context.Context, text string) int {
	count := len([]rune(text))
	if count == 0 {
		return 0
	}
	tokens := count / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TiktokenEstimator counts tokens with the BPE encoding of a chat model.
type TiktokenEstimator struct {
	tke *tiktoken.Tiktoken
}

// NewTiktokenEstimator resolves the encoding for model, falling back to cl100k_base.
func NewTiktokenEstimator(model string) (*TiktokenEstimator, error) {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get default encoding %q: %w", defaultEncoding, err)
		}
	}
	return &TiktokenEstimator{tke: tke}, nil
}

func (e *TiktokenEstimator) EstimateTokens(_ context.Context, text string) int {
	if text == "" {
		return 0
	}
	return len(e.tke.Encode(text, nil, nil))
}

// NewEstimator prefers tiktoken and degrades to a rune based estimate when the
// encoding tables cannot be loaded, e.g. without network access.
func NewEstimator(ctx context.Context, model string) TokenEstimator {
	estimator, err := NewTiktokenEstimator(model)
	if err != nil {
		logger.FromContext(ctx).Warn("Falling back to rune token estimates", "model", model, "error", err)
		return runeEstimator{}
	}
	return estimator
}
