package ingest

import (
	"strings"
	"time"
)

// Strategy defines how ingestion should write records into the vector store.
type Strategy string

const (
	StrategyUpsert  Strategy = "upsert"
	StrategyReplace Strategy = "replace"
)

// Options controls ingestion execution details provided by callers.
type Options struct {
	Dir          string
	Extensions   []string
	Strategy     Strategy
	Workers      int
	BatchSize    int
	ChunkSize    int
	ChunkOverlap int
	Retry        RetrySettings
}

// RetrySettings bounds retries of embedding and upsert batches.
type RetrySettings struct {
	Attempts int
	Backoff  time.Duration
	Max      time.Duration
}

func defaultRetry() RetrySettings {
	return RetrySettings{Attempts: 3, Backoff: 200 * time.Millisecond, Max: 2 * time.Second}
}

func (o *Options) normalizedStrategy() Strategy {
	if o == nil || o.Strategy == "" {
		return StrategyUpsert
	}
	return o.Strategy
}

func (o *Options) normalizedExtensions() []string {
	out := make([]string, 0, len(o.Extensions))
	seen := make(map[string]struct{}, len(o.Extensions))
	for _, ext := range o.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (o *Options) normalizedRetry() RetrySettings {
	r := o.Retry
	def := defaultRetry()
	if r.Attempts <= 0 {
		r.Attempts = def.Attempts
	}
	if r.Backoff <= 0 {
		r.Backoff = def.Backoff
	}
	if r.Max < r.Backoff {
		r.Max = max(def.Max, r.Backoff)
	}
	return r
}
