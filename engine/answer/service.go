// Package answer runs the retrieval-augmented answer pipeline: rewrite the
// question, retrieve grounding chunks, render the prompt and generate.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/compozy/helpdesk/engine/knowledge"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/tplengine"
)

const (
	stageRewrite  = "rewrite"
	stageRetrieve = "retrieve"
	stageRender   = "render"
	stageGenerate = "generate"
)

// Retriever returns the chunks closest to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]knowledge.RetrievedContext, error)
}

// QueryRewriter restates a query before retrieval.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) (string, error)
}

type Service struct {
	client    llmadapter.LLMClient
	rewriter  QueryRewriter
	retriever Retriever
	prompts   *tplengine.TemplateEngine
	tracer    trace.Tracer
}

func NewService(client llmadapter.LLMClient, rewriter QueryRewriter, retriever Retriever) (*Service, error) {
	if client == nil {
		return nil, errors.New("answer: llm client is required")
	}
	if retriever == nil {
		return nil, errors.New("answer: retriever is required")
	}
	if rewriter == nil {
		rw, err := NewRewriter(client)
		if err != nil {
			return nil, err
		}
		rewriter = rw
	}
	return &Service{
		client:    client,
		rewriter:  rewriter,
		retriever: retriever,
		prompts:   newPromptEngine(),
		tracer:    otel.Tracer("helpdesk.answer"),
	}, nil
}

// Answer runs every stage in order and returns the raw generation response.
// The first failing stage aborts the run; its error names the stage.
func (s *Service) Answer(ctx context.Context, query string) (resp *llmadapter.LLMResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "helpdesk.answer")
	defer func() {
		recordAnswer(ctx, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	log := logger.FromContext(ctx)

	rewritten, err := runStage(ctx, s, stageRewrite, func(ctx context.Context) (string, error) {
		return s.rewriter.Rewrite(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("answer: rewrite query: %w", err)
	}
	log.Debug("Query rewritten", "original", query, "rewritten", rewritten)

	chunks, err := runStage(ctx, s, stageRetrieve, func(ctx context.Context) ([]knowledge.RetrievedContext, error) {
		return s.retriever.Retrieve(ctx, rewritten)
	})
	if err != nil {
		return nil, fmt.Errorf("answer: retrieve context: %w", err)
	}
	recordContextChunks(ctx, len(chunks))
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	prompt, err := runStage(ctx, s, stageRender, func(context.Context) (string, error) {
		return s.renderPrompt(query, chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("answer: render prompt: %w", err)
	}

	resp, err = runStage(ctx, s, stageGenerate, func(ctx context.Context) (*llmadapter.LLMResponse, error) {
		return s.client.GenerateContent(ctx, llmadapter.UserPrompt("", prompt))
	})
	if err != nil {
		return nil, fmt.Errorf("answer: generate: %w", err)
	}
	log.Debug("Answer generated", "chunks", len(chunks))
	return resp, nil
}

// renderPrompt grounds the original question, not the rewrite, in the
// retrieved chunks.
func (s *Service) renderPrompt(query string, chunks []knowledge.RetrievedContext) (string, error) {
	return s.prompts.Render(groundedPromptTemplate, map[string]any{
		"query":  query,
		"chunks": knowledge.Texts(chunks),
	})
}

func runStage[T any](ctx context.Context, s *Service, stage string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "helpdesk.answer."+stage)
	defer span.End()
	out, err := fn(ctx)
	recordStage(ctx, stage, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}
