package vectordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(&Config{Dimension: 4})

	t.Run("Should upsert and search by cosine", func(t *testing.T) {
		records := []Record{
			{ID: "a", Text: "alpha", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]any{"kind": "one"}},
			{ID: "b", Text: "bravo", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]any{"kind": "two"}},
		}
		require.NoError(t, store.Upsert(ctx, records))
		matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, SearchOptions{TopK: 1})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].ID)
		assert.Equal(t, "alpha", matches[0].Text)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	})

	t.Run("Should filter by metadata", func(t *testing.T) {
		matches, err := store.Search(
			ctx,
			[]float32{0, 1, 0, 0},
			SearchOptions{TopK: 2, Filters: map[string]string{"kind": "two"}},
		)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "b", matches[0].ID)
	})

	t.Run("Should delete by id", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, Filter{IDs: []string{"a"}}))
		matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, SearchOptions{TopK: 2, MinScore: 0.1})
		require.NoError(t, err)
		require.Len(t, matches, 0)
	})

	t.Run("Should fail upsert when dimension mismatches", func(t *testing.T) {
		mismatchStore := newMemoryStore(&Config{Dimension: 4})
		err := mismatchStore.Upsert(ctx, []Record{{ID: "bad", Embedding: []float32{1, 1, 1}}})
		require.Error(t, err)
	})

	t.Run("Should fail search when query dimension mismatches", func(t *testing.T) {
		otherStore := newMemoryStore(&Config{Dimension: 2})
		require.NoError(t, otherStore.Upsert(ctx, []Record{{ID: "c", Embedding: []float32{1, 0}}}))
		_, err := otherStore.Search(ctx, []float32{1, 0, 0}, SearchOptions{TopK: 1})
		require.Error(t, err)
	})

	t.Run("Should respect top k when exceeding available records", func(t *testing.T) {
		limitedStore := newMemoryStore(&Config{Dimension: 2})
		records := []Record{
			{ID: "d", Text: "delta", Embedding: []float32{1, 0}},
			{ID: "e", Text: "echo", Embedding: []float32{0, 1}},
		}
		require.NoError(t, limitedStore.Upsert(ctx, records))
		matches, err := limitedStore.Search(ctx, []float32{1, 0}, SearchOptions{TopK: 10})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "d", matches[0].ID)
	})

	t.Run("Should keep negatively correlated neighbours when no threshold is set", func(t *testing.T) {
		kb := newMemoryStore(&Config{Dimension: 2})
		require.NoError(t, kb.Upsert(ctx, []Record{
			{ID: "near", Embedding: []float32{1, 0}},
			{ID: "side", Embedding: []float32{0.6, 0.8}},
			{ID: "away", Embedding: []float32{-0.3, 0.954}},
		}))
		matches, err := kb.Search(ctx, []float32{1, 0}, SearchOptions{TopK: 3, MinScore: 0})
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, []string{"near", "side", "away"}, []string{matches[0].ID, matches[1].ID, matches[2].ID})
		assert.Less(t, matches[2].Score, 0.0)
	})

	t.Run("Should cap top k at the configured maximum", func(t *testing.T) {
		capped := newMemoryStore(&Config{Dimension: 2, MaxTopK: 1})
		require.NoError(t, capped.Upsert(ctx, []Record{
			{ID: "f", Embedding: []float32{1, 0}},
			{ID: "g", Embedding: []float32{1, 1}},
		}))
		matches, err := capped.Search(ctx, []float32{1, 0}, SearchOptions{TopK: 5})
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})
}

func TestMemoryStore_Snapshot(t *testing.T) {
	t.Run("Should reload records from the snapshot file", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		cfg := &Config{ID: "kb", Provider: ProviderMemory, Dimension: 2, Path: filepath.Join(t.TempDir(), "kb", "vectors.json")}
		store, err := New(ctx, cfg)
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, []Record{
			{ID: "p1", Text: "Tuition is due in October.", Embedding: []float32{1, 0}, Metadata: map[string]any{"source": "fees.pdf"}},
		}))

		// Act
		reopened, err := New(ctx, cfg)
		require.NoError(t, err)
		matches, err := reopened.Search(ctx, []float32{1, 0}, SearchOptions{TopK: 1})

		// Assert
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "Tuition is due in October.", matches[0].Text)
		assert.Equal(t, "fees.pdf", matches[0].Metadata["source"])
	})

	t.Run("Should reject snapshots of a different dimension", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "vectors.json")
		store, err := New(ctx, &Config{ID: "kb", Provider: ProviderMemory, Dimension: 2, Path: path})
		require.NoError(t, err)
		require.NoError(t, store.Upsert(ctx, []Record{{ID: "x", Embedding: []float32{0, 1}}}))

		_, err = New(ctx, &Config{ID: "kb", Provider: ProviderMemory, Dimension: 3, Path: path})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match")
	})
}

func TestNew_Validation(t *testing.T) {
	t.Run("Should require a dsn and collection for qdrant", func(t *testing.T) {
		_, err := New(context.Background(), &Config{ID: "kb", Provider: ProviderQdrant, Dimension: 3})
		require.ErrorIs(t, err, errMissingDSN)

		_, err = New(context.Background(), &Config{ID: "kb", Provider: ProviderQdrant, DSN: "http://q", Dimension: 3})
		require.ErrorIs(t, err, errMissingCollection)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := New(context.Background(), &Config{ID: "kb", Provider: "weaviate", Dimension: 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})

	t.Run("Should treat stores without collections as provisioned", func(t *testing.T) {
		require.NoError(t, EnsureCollection(context.Background(), newMemoryStore(&Config{Dimension: 2})))
	})
}
