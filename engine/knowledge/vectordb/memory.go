package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/compozy/helpdesk/engine/core"
)

// memoryStore keeps records in process. When a path is configured every write
// is snapshotted to a JSON file and the snapshot is loaded on open.
type memoryStore struct {
	mu        sync.RWMutex
	path      string
	dimension int
	maxTopK   int
	records   map[string]Record
}

func newMemoryStore(cfg *Config) *memoryStore {
	return &memoryStore{
		path:      cfg.Path,
		dimension: cfg.Dimension,
		maxTopK:   cfg.MaxTopK,
		records:   make(map[string]Record),
	}
}

func openMemoryStore(cfg *Config) (Store, error) {
	store := newMemoryStore(cfg)
	if store.path == "" {
		return store, nil
	}
	store.path = filepath.Clean(store.path)
	if err := os.MkdirAll(filepath.Dir(store.path), 0o750); err != nil {
		return nil, fmt.Errorf("memory: ensure directory for %q: %w", store.path, err)
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *memoryStore) Upsert(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf(
				"memory: record %q dimension mismatch (got %d want %d)",
				rec.ID,
				len(rec.Embedding),
				s.dimension,
			)
		}
		s.records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: append([]float32(nil), rec.Embedding...),
			Metadata:  core.CloneMap(rec.Metadata),
		}
	}
	return s.persistLocked()
}

func (s *memoryStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("memory: query dimension mismatch (got %d want %d)", len(query), s.dimension)
	}
	topK := clampTopK(opts.TopK, s.maxTopK)
	start := time.Now()
	s.mu.RLock()
	candidates := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		if !metadataMatches(rec.Metadata, opts.Filters) {
			continue
		}
		score := cosineSimilarity(rec.Embedding, query)
		if opts.belowThreshold(score) {
			continue
		}
		candidates = append(candidates, Match{
			ID:       rec.ID,
			Score:    score,
			Text:     rec.Text,
			Metadata: core.CloneMap(rec.Metadata),
		})
	}
	s.mu.RUnlock()
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	recordVectorSearch(ctx, string(ProviderMemory), topK, time.Since(start), candidates)
	return candidates, nil
}

func (s *memoryStore) Delete(_ context.Context, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(filter.IDs) > 0 {
		for _, id := range filter.IDs {
			delete(s.records, id)
		}
		return s.persistLocked()
	}
	if len(filter.Metadata) == 0 {
		return nil
	}
	changed := false
	for id, rec := range s.records {
		if metadataMatches(rec.Metadata, filter.Metadata) {
			delete(s.records, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persistLocked()
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}

func (s *memoryStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("memory: read %q: %w", s.path, err)
	}
	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("memory: decode %q: %w", s.path, err)
	}
	if payload.Dimension > 0 && s.dimension != payload.Dimension {
		return fmt.Errorf(
			"memory: stored dimension %d does not match config %d for %q",
			payload.Dimension,
			s.dimension,
			s.path,
		)
	}
	for i := range payload.Records {
		rec := payload.Records[i]
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("memory: snapshot record %q has dimension %d", rec.ID, len(rec.Embedding))
		}
		s.records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: rec.Embedding,
			Metadata:  rec.Metadata,
		}
	}
	return nil
}

func (s *memoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	payload := snapshotPayload{
		Dimension: s.dimension,
		Records:   make([]snapshotRecord, 0, len(s.records)),
	}
	for _, rec := range s.records {
		payload.Records = append(payload.Records, snapshotRecord(rec))
	}
	sort.Slice(payload.Records, func(i, j int) bool { return payload.Records[i].ID < payload.Records[j].ID })
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("memory: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("memory: commit snapshot: %w", err)
	}
	return nil
}

type snapshotPayload struct {
	Dimension int              `json:"dimension"`
	Records   []snapshotRecord `json:"records"`
}

type snapshotRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

func metadataMatches(metadata map[string]any, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := metadata[key]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
