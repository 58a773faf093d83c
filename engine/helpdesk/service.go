// Package helpdesk exposes the two operations of the service: answering a
// question and drafting an escalation email.
package helpdesk

import (
	"context"
	"errors"
	"strings"

	"github.com/compozy/helpdesk/engine/escalation"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/normalizer"
)

// Answerer produces a raw generation response for a question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*llmadapter.LLMResponse, error)
}

// Composer drafts an escalation email.
type Composer interface {
	Compose(ctx context.Context, identity escalation.Identity, question, ragAnswer string) (*escalation.Draft, error)
}

// EscalationRequest carries the student's data alongside the question the
// chatbot could not settle.
type EscalationRequest struct {
	Query     string
	RAGAnswer string
	Identity  escalation.Identity
}

type Service struct {
	answerer   Answerer
	composer   Composer
	normalizer *normalizer.Normalizer
}

func NewService(answerer Answerer, composer Composer) (*Service, error) {
	if answerer == nil {
		return nil, errors.New("helpdesk: answerer is required")
	}
	if composer == nil {
		return nil, errors.New("helpdesk: composer is required")
	}
	return &Service{answerer: answerer, composer: composer, normalizer: normalizer.New()}, nil
}

// Ask answers query with grounded text. A blank query is rejected before any
// upstream call; a blank generation is reported as an upstream failure.
func (s *Service) Ask(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	resp, err := s.answerer.Answer(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to answer query", "error", err)
		return "", &UpstreamError{Op: OpProcessQuery, Err: err}
	}
	answer := s.normalizer.Normalize(resp)
	if strings.TrimSpace(answer) == "" {
		logger.FromContext(ctx).Error("Generation model returned an empty answer")
		return "", &UpstreamError{Op: OpProcessQuery, Err: ErrEmptyAnswer}
	}
	return answer, nil
}

// Escalate drafts an email to the helpdesk. It never sends anything.
func (s *Service) Escalate(ctx context.Context, req EscalationRequest) (*escalation.Draft, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrMissingQuery
	}
	draft, err := s.composer.Compose(ctx, req.Identity, req.Query, req.RAGAnswer)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to draft escalation email", "error", err)
		return nil, &UpstreamError{Op: OpGenerateEmail, Err: err}
	}
	return draft, nil
}
