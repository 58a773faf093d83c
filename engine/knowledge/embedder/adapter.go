package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/pkg/logger"
)

// Embedder is the embedding model boundary consumed by retrieval and ingestion.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Adapter wraps a langchaingo embedder implementation and augments error reporting.
type Adapter struct {
	id        string
	provider  Provider
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

var (
	errMissingID        = errors.New("embedder id is required")
	errMissingProvider  = errors.New("embedder provider is required")
	errMissingModel     = errors.New("embedder model is required")
	errInvalidDimension = errors.New("embedder dimension must be greater than zero")
	errInvalidBatchSize = errors.New("embedder batch size must be greater than zero")
)

// New constructs a provider-backed embedder adapter.
func New(cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	options := []embeddings.Option{
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	}
	impl, err := buildProviderEmbedder(cfg, options...)
	if err != nil {
		return nil, err
	}
	return newAdapter(cfg, impl)
}

// Wrap constructs an adapter around an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.ID)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return newAdapter(cfg, impl)
}

func newAdapter(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	a := &Adapter{
		id:        cfg.ID,
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}
	if cfg.CacheSize > 0 {
		if err := a.EnableCache(cfg.CacheSize); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int {
	return a.dimension
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// EnableCache initializes an LRU cache for embeddings.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("embedder %q: cache size must be greater than zero", a.id)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder %q: init cache: %w", a.id, err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedDocuments delegates to the underlying implementation with contextual errors.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if cache := a.getCache(); cache != nil {
		return a.cachedEmbedDocuments(ctx, cache, texts)
	}
	return a.embedDocuments(ctx, texts)
}

// EmbedQuery delegates to the underlying implementation with contextual errors.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	cache := a.getCache()
	if vector, ok := a.lookupCache(cache, text); ok {
		recordCacheLookup(ctx, a.provider, true)
		return vector, nil
	}
	if cache != nil {
		recordCacheLookup(ctx, a.provider, false)
	}
	start := time.Now()
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		recordError(ctx, a.provider)
		return nil, a.withContext(err)
	}
	if err := a.checkDimension(vector); err != nil {
		return nil, err
	}
	recordGeneration(ctx, a.provider, 1, time.Since(start))
	a.storeCache(cache, text, vector)
	return cloneVector(vector), nil
}

func (a *Adapter) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		recordError(ctx, a.provider)
		return nil, a.withContext(err)
	}
	if len(vectors) != len(texts) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(vectors), len(texts)))
	}
	for _, vector := range vectors {
		if err := a.checkDimension(vector); err != nil {
			return nil, err
		}
	}
	recordGeneration(ctx, a.provider, len(texts), time.Since(start))
	logger.FromContext(ctx).Debug("Embedded documents", "embedder", a.id, "count", len(texts))
	return vectors, nil
}

func (a *Adapter) cachedEmbedDocuments(
	ctx context.Context,
	cache *lru.Cache[string, []float32],
	texts []string,
) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missingIdxMap := make(map[string][]int)
	uniqueMissing := make([]string, 0, len(texts))
	for i, text := range texts {
		if vector, ok := a.lookupCache(cache, text); ok {
			recordCacheLookup(ctx, a.provider, true)
			results[i] = vector
			continue
		}
		recordCacheLookup(ctx, a.provider, false)
		if _, seen := missingIdxMap[text]; !seen {
			uniqueMissing = append(uniqueMissing, text)
		}
		missingIdxMap[text] = append(missingIdxMap[text], i)
	}
	if len(uniqueMissing) == 0 {
		return results, nil
	}
	embedded, err := a.embedDocuments(ctx, uniqueMissing)
	if err != nil {
		return nil, err
	}
	for i, text := range uniqueMissing {
		for _, idx := range missingIdxMap[text] {
			results[idx] = cloneVector(embedded[i])
		}
		a.storeCache(cache, text, embedded[i])
	}
	return results, nil
}

func (a *Adapter) checkDimension(vector []float32) error {
	if a.dimension > 0 && len(vector) != a.dimension {
		return a.withContext(fmt.Errorf("expected dimension %d, got %d", a.dimension, len(vector)))
	}
	return nil
}

func (a *Adapter) getCache() *lru.Cache[string, []float32] {
	a.cacheMu.Lock()
	cache := a.cache
	a.cacheMu.Unlock()
	return cache
}

func (a *Adapter) lookupCache(cache *lru.Cache[string, []float32], text string) ([]float32, bool) {
	if cache == nil {
		return nil, false
	}
	value, ok := cache.Get(core.ContentHash(text))
	if !ok {
		return nil, false
	}
	return cloneVector(value), true
}

func (a *Adapter) storeCache(cache *lru.Cache[string, []float32], text string, vector []float32) {
	if cache == nil || len(vector) == 0 {
		return
	}
	cache.Add(core.ContentHash(text), cloneVector(vector))
}

func (a *Adapter) withContext(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("embedder %q: %w", a.id, err)
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingProvider)
	}
	if cfg.Provider != ProviderMock && strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingModel)
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidDimension)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidBatchSize)
	}
	return nil
}

func buildProviderEmbedder(cfg *Config, options ...embeddings.Option) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return buildOpenAIEmbedder(cfg, options...)
	case ProviderMock:
		return buildMockEmbedder(cfg, options...)
	default:
		return nil, fmt.Errorf("embedder %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func buildOpenAIEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	openaiOpts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		openaiOpts = append(openaiOpts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(openaiOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize openai client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct openai embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}

func buildMockEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(&hashClient{dimension: cfg.Dimension}, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct mock embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}
