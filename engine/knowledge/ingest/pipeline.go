package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/engine/knowledge"
	"github.com/compozy/helpdesk/engine/knowledge/chunk"
	"github.com/compozy/helpdesk/engine/knowledge/embedder"
	"github.com/compozy/helpdesk/engine/knowledge/vectordb"
	"github.com/compozy/helpdesk/pkg/logger"
)

const collectionMetadataKey = "collection"

type Pipeline struct {
	collection string
	embedder   embedder.Embedder
	store      vectordb.Store
	options    Options
	chunker    *chunk.Processor
	batchSize  int
	workers    int
	retry      RetrySettings
}

type Result struct {
	Collection string
	Documents  int
	Skipped    []string
	Failed     map[string]string
	Chunks     int
	Persisted  int
}

func NewPipeline(
	collection string,
	emb embedder.Embedder,
	store vectordb.Store,
	opts Options,
) (*Pipeline, error) {
	if collection == "" {
		return nil, errors.New("knowledge: collection is required")
	}
	if emb == nil {
		return nil, errors.New("knowledge: embedder implementation is required")
	}
	if store == nil {
		return nil, errors.New("knowledge: vector store is required")
	}
	chunker, err := chunk.NewProcessor(chunk.Settings{
		Size:              opts.ChunkSize,
		Overlap:           opts.ChunkOverlap,
		Deduplicate:       true,
		NormalizeNewlines: true,
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		collection: collection,
		embedder:   emb,
		store:      store,
		options:    opts,
		chunker:    chunker,
		batchSize:  max(opts.BatchSize, 1),
		workers:    max(opts.Workers, 1),
		retry:      opts.normalizedRetry(),
	}, nil
}

// Run loads every matching file, chunks it, embeds the chunks in batches and
// writes them to the store. Files that fail to load are reported in the result
// without aborting the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := logger.FromContext(ctx).With("collection", p.collection)
	start := time.Now()
	strategy := p.options.normalizedStrategy()
	if strategy != StrategyUpsert && strategy != StrategyReplace {
		return nil, fmt.Errorf("knowledge: ingestion strategy %q not supported", strategy)
	}
	files, err := enumerateSources(p.options.Dir, p.options.normalizedExtensions())
	if err != nil {
		return nil, err
	}
	result := &Result{Collection: p.collection, Failed: make(map[string]string)}
	if len(files) == 0 {
		log.Warn("No documents found to ingest", "dir", p.options.Dir)
		return result, nil
	}
	docs := p.loadDocuments(ctx, files, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Documents = len(docs)
	chunks, err := p.chunker.Process(p.collection, docs)
	if err != nil {
		return nil, err
	}
	result.Chunks = len(chunks)
	if err := vectordb.EnsureCollection(ctx, p.store); err != nil {
		return nil, fmt.Errorf("knowledge: ensure collection: %w", err)
	}
	if strategy == StrategyReplace {
		if err := p.deleteExistingRecords(ctx); err != nil {
			return nil, err
		}
	}
	if len(chunks) > 0 {
		persisted, err := p.persistChunks(ctx, chunks)
		if err != nil {
			return nil, err
		}
		result.Persisted = persisted
	}
	knowledge.RecordIngestDuration(ctx, p.collection, time.Since(start))
	knowledge.RecordIngestChunks(ctx, p.collection, result.Persisted)
	log.Info(
		"Knowledge ingestion completed",
		"documents", result.Documents,
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
		"chunks", result.Chunks,
		"persisted", result.Persisted,
	)
	return result, nil
}

// loadDocuments reads files concurrently and returns documents in file order.
func (p *Pipeline) loadDocuments(ctx context.Context, files []sourceFile, result *Result) []chunk.Document {
	log := logger.FromContext(ctx)
	loaded := make([]*chunk.Document, len(files))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range files {
		file := files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := loadDocument(gctx, file)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Warn("Failed to load document", "path", file.rel, "error", err)
				result.Failed[file.rel] = err.Error()
				knowledge.RecordIngestDocument(gctx, p.collection, "failed")
			case doc == nil:
				log.Warn("Document has no text, skipping", "path", file.rel)
				result.Skipped = append(result.Skipped, file.rel)
				knowledge.RecordIngestDocument(gctx, p.collection, "skipped")
			default:
				doc.Metadata[collectionMetadataKey] = p.collection
				loaded[i] = doc
				knowledge.RecordIngestDocument(gctx, p.collection, "ok")
			}
			return nil
		})
	}
	//nolint:errcheck // workers only return context errors, checked by the caller
	_ = g.Wait()
	docs := make([]chunk.Document, 0, len(files))
	for _, doc := range loaded {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs
}

func (p *Pipeline) persistChunks(ctx context.Context, chunks []chunk.Chunk) (int, error) {
	total := 0
	for start := 0; start < len(chunks); start += p.batchSize {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		end := min(start+p.batchSize, len(chunks))
		batch := chunks[start:end]
		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			return total, err
		}
		if len(vectors) != len(batch) {
			return total, fmt.Errorf("knowledge: embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}
		records := make([]vectordb.Record, len(batch))
		for i := range batch {
			meta := core.CloneMap(batch[i].Metadata)
			meta["chunk_hash"] = batch[i].Hash
			records[i] = vectordb.Record{
				ID:        batch[i].ID,
				Text:      batch[i].Text,
				Embedding: vectors[i],
				Metadata:  meta,
			}
		}
		if err := p.upsertBatch(ctx, records); err != nil {
			return total, err
		}
		total += len(records)
	}
	return total, nil
}

func (p *Pipeline) backoff() retry.Backoff {
	b := retry.NewExponential(p.retry.Backoff)
	b = retry.WithCappedDuration(p.retry.Max, b)
	return retry.WithMaxRetries(uint64(p.retry.Attempts-1), b)
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []chunk.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}
	var out [][]float32
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		vectors, err := p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			logger.FromContext(ctx).Debug("Embedding batch failed", "size", len(texts), "error", err)
			return retry.RetryableError(err)
		}
		out = vectors
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: embed documents failed: %w", err)
	}
	return out, nil
}

func (p *Pipeline) upsertBatch(ctx context.Context, records []vectordb.Record) error {
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		if err := p.store.Upsert(ctx, records); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("knowledge: persist vectors failed: %w", err)
	}
	return nil
}

func (p *Pipeline) deleteExistingRecords(ctx context.Context) error {
	filter := vectordb.Filter{Metadata: map[string]string{collectionMetadataKey: p.collection}}
	if err := p.store.Delete(ctx, filter); err != nil {
		return fmt.Errorf("knowledge: delete existing records: %w", err)
	}
	return nil
}
