package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/helpdesk/engine/knowledge/retriever"
	"github.com/compozy/helpdesk/engine/knowledge/vectordb"
)

type stubEmbedder struct {
	fail    bool
	queries []string
}

func (s *stubEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.queries = append(s.queries, text)
	if s.fail {
		return nil, errors.New("embed query failed")
	}
	return []float32{1, 0, 0}, nil
}

type stubStore struct {
	matches  []vectordb.Match
	lastOpts vectordb.SearchOptions
	err      error
}

func (s *stubStore) Upsert(context.Context, []vectordb.Record) error {
	return nil
}

func (s *stubStore) Search(_ context.Context, _ []float32, opts vectordb.SearchOptions) ([]vectordb.Match, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	filtered := make([]vectordb.Match, 0, len(s.matches))
	for i := range s.matches {
		if opts.MinScore > 0 && s.matches[i].Score < opts.MinScore {
			continue
		}
		filtered = append(filtered, s.matches[i])
	}
	return filtered, nil
}

func (s *stubStore) Delete(context.Context, vectordb.Filter) error {
	return nil
}

func (s *stubStore) Close(context.Context) error {
	return nil
}

type fixedEstimator struct {
	values []int
}

func (f *fixedEstimator) EstimateTokens(_ context.Context, _ string) int {
	if len(f.values) == 0 {
		return 0
	}
	val := f.values[0]
	f.values = f.values[1:]
	return val
}

func TestService_Retrieve(t *testing.T) {
	t.Run("Should respect top k, min score and ordering", func(t *testing.T) {
		// Arrange
		store := &stubStore{
			matches: []vectordb.Match{
				{ID: "c", Score: 0.45, Text: "third", Metadata: map[string]any{"source": "c"}},
				{ID: "a", Score: 0.72, Text: "first", Metadata: map[string]any{"source": "a"}},
				{ID: "e", Score: 0.41, Text: "fourth"},
				{ID: "b", Score: 0.72, Text: "second", Metadata: map[string]any{"source": "b"}},
				{ID: "d", Score: 0.30, Text: "low"},
			},
		}
		service, err := retriever.NewService(&stubEmbedder{}, store, nil, retriever.Options{MinScore: 0.4})
		require.NoError(t, err)

		// Act
		results, err := service.Retrieve(context.Background(), "query")

		// Assert
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Source())
		assert.Equal(t, "b", results[1].Source())
		assert.Equal(t, "c", results[2].Source())
		assert.Equal(t, retriever.DefaultTopK, store.lastOpts.TopK)
		assert.GreaterOrEqual(t, results[0].TokenEstimate, 1)
	})

	t.Run("Should trim by max tokens", func(t *testing.T) {
		store := &stubStore{
			matches: []vectordb.Match{
				{ID: "a", Score: 0.9, Text: "alpha"},
				{ID: "b", Score: 0.8, Text: "beta"},
				{ID: "c", Score: 0.7, Text: "gamma"},
			},
		}
		estimator := &fixedEstimator{values: []int{120, 80, 60}}
		service, err := retriever.NewService(&stubEmbedder{}, store, estimator, retriever.Options{MaxTokens: 220})
		require.NoError(t, err)

		results, err := service.Retrieve(context.Background(), "query")

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.LessOrEqual(t, results[0].TokenEstimate+results[1].TokenEstimate, 220)
	})

	t.Run("Should return no contexts for an empty collection", func(t *testing.T) {
		service, err := retriever.NewService(&stubEmbedder{}, &stubStore{}, nil, retriever.Options{})
		require.NoError(t, err)

		results, err := service.Retrieve(context.Background(), "query")

		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Should propagate embedder failures", func(t *testing.T) {
		service, err := retriever.NewService(&stubEmbedder{fail: true}, &stubStore{}, nil, retriever.Options{})
		require.NoError(t, err)

		_, err = service.Retrieve(context.Background(), "query")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed query failed")
	})

	t.Run("Should propagate store failures", func(t *testing.T) {
		upstream := errors.New("qdrant: request failed")
		service, err := retriever.NewService(&stubEmbedder{}, &stubStore{err: upstream}, nil, retriever.Options{})
		require.NoError(t, err)

		_, err = service.Retrieve(context.Background(), "query")

		require.ErrorIs(t, err, upstream)
	})

	t.Run("Should reject blank queries before embedding", func(t *testing.T) {
		emb := &stubEmbedder{}
		service, err := retriever.NewService(emb, &stubStore{}, nil, retriever.Options{})
		require.NoError(t, err)

		_, err = service.Retrieve(context.Background(), "   ")

		require.Error(t, err)
		assert.Empty(t, emb.queries)
	})
}

func TestNewService(t *testing.T) {
	t.Run("Should require an embedder and a store", func(t *testing.T) {
		_, err := retriever.NewService(nil, &stubStore{}, nil, retriever.Options{})
		require.Error(t, err)

		_, err = retriever.NewService(&stubEmbedder{}, nil, nil, retriever.Options{})
		require.Error(t, err)
	})
}
