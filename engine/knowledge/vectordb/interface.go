package vectordb

import (
	"context"
	"time"
)

// Provider enumerates supported vector database backends.
type Provider string

const (
	ProviderQdrant Provider = "qdrant"
	// ProviderMemory keeps vectors in process, optionally snapshotted to a JSON file.
	ProviderMemory Provider = "memory"
)

// Record represents a chunk persisted to the vector store.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// SearchOptions controls similarity search execution. MinScore is applied
// only when positive; zero or below returns the TopK nearest matches whatever
// their score.
type SearchOptions struct {
	TopK     int
	MinScore float64
	Filters  map[string]string
}

func (o SearchOptions) belowThreshold(score float64) bool {
	return o.MinScore > 0 && score < o.MinScore
}

// Match captures a similarity search result.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Filter specifies delete criteria.
type Filter struct {
	IDs      []string
	Metadata map[string]string
}

// Store exposes the minimal contract for ingestion and retrieval.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Delete(ctx context.Context, filter Filter) error
	Close(ctx context.Context) error
}

// CollectionManager is implemented by stores that need their collection
// provisioned before the first write. The query path never calls it.
type CollectionManager interface {
	EnsureCollection(ctx context.Context) error
}

// Config captures normalized connection details for a vector database.
type Config struct {
	ID         string
	Provider   Provider
	DSN        string
	Path       string
	Collection string
	VectorName string
	Metric     string
	Dimension  int
	APIKey     string
	Timeout    time.Duration
	MaxTopK    int
}
