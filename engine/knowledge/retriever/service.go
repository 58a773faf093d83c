package retriever

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/engine/knowledge"
	"github.com/compozy/helpdesk/engine/knowledge/embedder"
	"github.com/compozy/helpdesk/engine/knowledge/vectordb"
	"github.com/compozy/helpdesk/pkg/logger"
)

// DefaultTopK is the number of chunks fed into the answer prompt.
const DefaultTopK = 3

// Options tunes a retrieval.
type Options struct {
	Collection string
	TopK       int
	MinScore   float64
	MaxTokens  int
	Filters    map[string]string
}

type Service struct {
	embedder  embedder.Embedder
	store     vectordb.Store
	estimator TokenEstimator
	opts      Options
	tracer    trace.Tracer
}

func NewService(
	emb embedder.Embedder,
	store vectordb.Store,
	estimator TokenEstimator,
	opts Options,
) (*Service, error) {
	if emb == nil {
		return nil, errors.New("knowledge: retriever embedder is required")
	}
	if store == nil {
		return nil, errors.New("knowledge: retriever vector store is required")
	}
	if estimator == nil {
		estimator = runeEstimator{}
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Service{
		embedder:  emb,
		store:     store,
		estimator: estimator,
		opts:      opts,
		tracer:    otel.Tracer("helpdesk.knowledge.retriever"),
	}, nil
}

// Retrieve embeds query and returns the closest chunks, best first. An empty
// result is not an error.
func (s *Service) Retrieve(ctx context.Context, query string) (contexts []knowledge.RetrievedContext, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("knowledge: query is required")
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "helpdesk.knowledge.retriever.retrieve", trace.WithAttributes(
		attribute.String("collection", s.opts.Collection),
		attribute.Int("top_k", s.opts.TopK),
	))
	defer s.finishRetrieve(ctx, span, start, &contexts, &err)

	vector, err := s.embedQueryWithSpan(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := s.searchMatches(ctx, vector)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, s.opts.Collection)
		return nil, nil
	}
	sortMatches(matches)
	if len(matches) > s.opts.TopK {
		matches = matches[:s.opts.TopK]
	}
	return s.buildContexts(ctx, matches), nil
}

func (s *Service) embedQueryWithSpan(ctx context.Context, query string) ([]float32, error) {
	spanCtx, span := s.tracer.Start(ctx, "helpdesk.knowledge.retriever.embed_query")
	defer span.End()
	vector, err := s.embedder.EmbedQuery(spanCtx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return vector, nil
}

func (s *Service) searchMatches(ctx context.Context, vector []float32) ([]vectordb.Match, error) {
	spanCtx, span := s.tracer.Start(ctx, "helpdesk.knowledge.retriever.vector_search", trace.WithAttributes(
		attribute.Int("top_k", s.opts.TopK),
	))
	defer span.End()
	matches, err := s.store.Search(spanCtx, vector, vectordb.SearchOptions{
		TopK:     s.opts.TopK,
		MinScore: s.opts.MinScore,
		Filters:  core.CloneMap(s.opts.Filters),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches, nil
}

func (s *Service) buildContexts(ctx context.Context, matches []vectordb.Match) []knowledge.RetrievedContext {
	contexts := make([]knowledge.RetrievedContext, len(matches))
	tokenCounts := make([]int, len(matches))
	totalTokens := 0
	for i := range matches {
		tokens := s.estimator.EstimateTokens(ctx, matches[i].Text)
		totalTokens += tokens
		tokenCounts[i] = tokens
		contexts[i] = knowledge.RetrievedContext{
			ID:            matches[i].ID,
			Content:       matches[i].Text,
			Score:         matches[i].Score,
			TokenEstimate: tokens,
			Metadata:      core.CloneMap(matches[i].Metadata),
		}
	}
	return trimContexts(s.opts.MaxTokens, contexts, tokenCounts, totalTokens)
}

// trimContexts drops the weakest chunks until the total fits maxTokens.
func trimContexts(
	maxTokens int,
	contexts []knowledge.RetrievedContext,
	tokenCounts []int,
	totalTokens int,
) []knowledge.RetrievedContext {
	if maxTokens <= 0 {
		return contexts
	}
	for totalTokens > maxTokens && len(contexts) > 0 {
		last := len(contexts) - 1
		totalTokens -= tokenCounts[last]
		contexts = contexts[:last]
		tokenCounts = tokenCounts[:last]
	}
	return contexts
}

func (s *Service) finishRetrieve(
	ctx context.Context,
	span trace.Span,
	start time.Time,
	contexts *[]knowledge.RetrievedContext,
	runErr *error,
) {
	duration := time.Since(start)
	knowledge.RecordQueryLatency(ctx, s.opts.Collection, duration)
	log := logger.FromContext(ctx).With("collection", s.opts.Collection)
	seconds := duration.Seconds()
	if runErr != nil && *runErr != nil {
		err := *runErr
		log.Error("Knowledge retrieval failed", "error", err, "duration_seconds", seconds)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return
	}
	total := 0
	if contexts != nil {
		total = len(*contexts)
	}
	log.Debug("Knowledge retrieval finished", "results", total, "duration_seconds", seconds)
	span.SetAttributes(attribute.Int("results", total))
	span.End()
}

func sortMatches(matches []vectordb.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
}
