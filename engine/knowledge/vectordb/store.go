package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	errMissingID         = errors.New("vector_db id is required")
	errMissingProvider   = errors.New("vector_db provider is required")
	errMissingDSN        = errors.New("vector_db dsn is required")
	errMissingCollection = errors.New("vector_db collection is required")
	errInvalidDimension  = errors.New("vector_db dimension must be greater than zero")
)

const defaultTopK = 5

// New instantiates a vector store backed by the requested provider.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return instantiateStore(ctx, cfg)
}

// EnsureCollection provisions the store's collection when the backend needs it.
func EnsureCollection(ctx context.Context, store Store) error {
	manager, ok := store.(CollectionManager)
	if !ok {
		return nil
	}
	return manager.EnsureCollection(ctx)
}

func instantiateStore(_ context.Context, cfg *Config) (Store, error) {
	switch cfg.Provider {
	case ProviderQdrant:
		return newQdrantStore(cfg)
	case ProviderMemory:
		return openMemoryStore(cfg)
	default:
		return nil, fmt.Errorf("vector_db %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("vector_db config is required")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingProvider)
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Path = strings.TrimSpace(cfg.Path)
	if cfg.Provider == ProviderQdrant {
		if cfg.DSN == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingDSN)
		}
		if strings.TrimSpace(cfg.Collection) == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingCollection)
		}
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errInvalidDimension)
	}
	if cfg.MaxTopK < 0 {
		return fmt.Errorf("vector_db %q: max_top_k must be non-negative", cfg.ID)
	}
	return nil
}

func clampTopK(topK, maxTopK int) int {
	if topK <= 0 {
		topK = defaultTopK
	}
	if maxTopK > 0 && topK > maxTopK {
		return maxTopK
	}
	return topK
}
