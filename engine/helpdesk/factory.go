package helpdesk

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/helpdesk/engine/answer"
	"github.com/compozy/helpdesk/engine/escalation"
	"github.com/compozy/helpdesk/engine/knowledge/embedder"
	"github.com/compozy/helpdesk/engine/knowledge/ingest"
	"github.com/compozy/helpdesk/engine/knowledge/retriever"
	"github.com/compozy/helpdesk/engine/knowledge/vectordb"
	llmadapter "github.com/compozy/helpdesk/engine/llm/adapter"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
)

const (
	storeID    = "helpdesk"
	embedderID = "helpdesk"

	componentRewrite    = "rewrite"
	componentAnswer     = "answer"
	componentEscalation = "escalation"
)

// Dependencies holds the long lived clients behind a Service.
type Dependencies struct {
	Service  *Service
	LLM      llmadapter.LLMClient
	Embedder *embedder.Adapter
	Store    vectordb.Store
}

// Close releases the model client and the vector store.
func (d *Dependencies) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.LLM != nil {
		if err := d.LLM.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close llm client: %w", err))
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close vector store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ProviderConfig maps the openai section onto the generation provider.
func ProviderConfig(cfg *config.Config) llmadapter.ProviderConfig {
	return llmadapter.ProviderConfig{
		Provider:    cfg.OpenAI.Provider,
		Model:       cfg.OpenAI.ChatModel,
		APIKey:      cfg.OpenAI.APIKey.Value(),
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: cfg.OpenAI.Temperature,
	}
}

// NewEmbedder builds the embedding adapter. The mock generation provider
// selects the hashed offline embedder as well.
func NewEmbedder(cfg *config.Config) (*embedder.Adapter, error) {
	provider := embedder.ProviderOpenAI
	if cfg.OpenAI.Provider == llmadapter.ProviderMock {
		provider = embedder.ProviderMock
	}
	emb, err := embedder.New(&embedder.Config{
		ID:            embedderID,
		Provider:      provider,
		Model:         cfg.OpenAI.EmbeddingModel,
		APIKey:        cfg.OpenAI.APIKey.Value(),
		BaseURL:       cfg.OpenAI.BaseURL,
		Dimension:     cfg.OpenAI.EmbeddingDimension,
		BatchSize:     cfg.Ingest.BatchSize,
		StripNewLines: true,
		CacheSize:     cfg.Retrieval.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}

// NewStore opens the vector store named by the qdrant section.
func NewStore(ctx context.Context, cfg *config.Config) (vectordb.Store, error) {
	store, err := vectordb.New(ctx, &vectordb.Config{
		ID:         storeID,
		Provider:   vectordb.Provider(cfg.Qdrant.Provider),
		DSN:        cfg.Qdrant.Endpoint(),
		Path:       cfg.Qdrant.Path,
		Collection: cfg.Qdrant.Collection,
		VectorName: cfg.Qdrant.VectorName,
		Metric:     cfg.Qdrant.Metric,
		Dimension:  cfg.OpenAI.EmbeddingDimension,
		APIKey:     cfg.Qdrant.APIKey.Value(),
		Timeout:    cfg.Qdrant.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return store, nil
}

// NewIngestPipeline builds the document loader for dir. An empty dir falls
// back to the configured ingest directory.
func NewIngestPipeline(
	cfg *config.Config,
	emb embedder.Embedder,
	store vectordb.Store,
	dir string,
	strategy ingest.Strategy,
) (*ingest.Pipeline, error) {
	if dir == "" {
		dir = cfg.Ingest.Dir
	}
	return ingest.NewPipeline(cfg.Qdrant.Collection, emb, store, ingest.Options{
		Dir:          dir,
		Extensions:   cfg.Ingest.Extensions,
		Strategy:     strategy,
		Workers:      cfg.Ingest.Workers,
		BatchSize:    cfg.Ingest.BatchSize,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	})
}

// Build wires the answer pipeline, the escalation composer and the facade
// from configuration. Every generation call is reported to usage when it is
// not nil.
func Build(ctx context.Context, cfg *config.Config, usage llmadapter.UsageRecorder) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("helpdesk: configuration is required")
	}
	log := logger.FromContext(ctx)
	provider := ProviderConfig(cfg)
	client, err := llmadapter.NewLangChainAdapter(&provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	deps := &Dependencies{LLM: client}
	emb, err := NewEmbedder(cfg)
	if err != nil {
		_ = deps.Close(ctx)
		return nil, err
	}
	deps.Embedder = emb
	store, err := NewStore(ctx, cfg)
	if err != nil {
		_ = deps.Close(ctx)
		return nil, err
	}
	deps.Store = store
	svc, err := buildService(ctx, cfg, deps, usage, provider)
	if err != nil {
		_ = deps.Close(ctx)
		return nil, err
	}
	deps.Service = svc
	log.Info("Helpdesk pipeline ready",
		"llm_provider", provider.Provider,
		"chat_model", provider.Model,
		"embedding_model", cfg.OpenAI.EmbeddingModel,
		"vector_provider", cfg.Qdrant.Provider,
		"collection", cfg.Qdrant.Collection,
		"top_k", cfg.Retrieval.TopK,
	)
	return deps, nil
}

func buildService(
	ctx context.Context,
	cfg *config.Config,
	deps *Dependencies,
	usage llmadapter.UsageRecorder,
	provider llmadapter.ProviderConfig,
) (*Service, error) {
	ret, err := retriever.NewService(
		deps.Embedder,
		deps.Store,
		retriever.NewEstimator(ctx, cfg.OpenAI.ChatModel),
		retriever.Options{
			Collection: cfg.Qdrant.Collection,
			TopK:       cfg.Retrieval.TopK,
			MinScore:   cfg.Retrieval.MinScore,
			MaxTokens:  cfg.Retrieval.MaxTokens,
		},
	)
	if err != nil {
		return nil, err
	}
	rewriter, err := answer.NewRewriter(llmadapter.Instrument(deps.LLM, usage, componentRewrite, provider))
	if err != nil {
		return nil, err
	}
	answerer, err := answer.NewService(
		llmadapter.Instrument(deps.LLM, usage, componentAnswer, provider),
		rewriter,
		ret,
	)
	if err != nil {
		return nil, err
	}
	composer, err := escalation.NewComposer(
		llmadapter.Instrument(deps.LLM, usage, componentEscalation, provider),
		cfg.Helpdesk.Email,
	)
	if err != nil {
		return nil, err
	}
	return NewService(answerer, composer)
}
