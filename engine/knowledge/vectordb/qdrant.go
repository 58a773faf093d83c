package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/compozy/helpdesk/engine/core"
	"github.com/compozy/helpdesk/pkg/logger"
)

type qdrantStore struct {
	client     *http.Client
	baseURL    string
	collection string
	vectorName string
	dimension  int
	metric     string
	apiKey     string
	maxTopK    int
}

// qdrantSearchResult captures the fields returned by Qdrant search responses.
type qdrantSearchResult struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

const qdrantDefaultTimeout = 10 * time.Second

// payloadTextKeys lists the payload fields that may hold chunk text, in order.
var payloadTextKeys = []string{"text", "content", "page_content"}

// errQdrantNotFound marks 404 responses so EnsureCollection can create the collection.
var errQdrantNotFound = errors.New("qdrant: not found")

func newQdrantStore(cfg *Config) (Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = qdrantDefaultTimeout
	}
	return &qdrantStore{
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.DSN, "/"),
		collection: cfg.Collection,
		vectorName: strings.TrimSpace(cfg.VectorName),
		dimension:  cfg.Dimension,
		metric:     chooseMetric(cfg.Metric),
		apiKey:     cfg.APIKey,
		maxTopK:    cfg.MaxTopK,
	}, nil
}

func chooseMetric(metric string) string {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "euclid", "euclidean", "l2":
		return "Euclid"
	case "dot", "dotproduct":
		return "Dot"
	default:
		return "Cosine"
	}
}

func (q *qdrantStore) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(q.collection) + suffix
}

// EnsureCollection creates the collection when it does not exist yet.
func (q *qdrantStore) EnsureCollection(ctx context.Context) error {
	err := q.doRequest(ctx, http.MethodGet, q.collectionPath(""), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errQdrantNotFound) {
		return err
	}
	params := map[string]any{
		"size":     q.dimension,
		"distance": q.metric,
	}
	var vectors any = params
	if q.vectorName != "" {
		vectors = map[string]any{q.vectorName: params}
	}
	body := map[string]any{"vectors": vectors}
	if err := q.doRequest(ctx, http.MethodPut, q.collectionPath(""), body, nil); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Created qdrant collection", "collection", q.collection, "dimension", q.dimension)
	return nil
}

// buildQdrantFilter builds the request filter payload for Qdrant operations.
func buildQdrantFilter(filters map[string]string) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	must := make([]any, 0, len(filters))
	for key, val := range filters {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": val},
		})
	}
	return map[string]any{"must": must}
}

// mapQdrantResults converts Qdrant search results into the internal Match slice.
func mapQdrantResults(results []qdrantSearchResult, opts SearchOptions) []Match {
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		if opts.belowThreshold(res.Score) {
			continue
		}
		payload := core.CloneMap(res.Payload)
		if payload == nil {
			payload = make(map[string]any)
		}
		text := ""
		for _, key := range payloadTextKeys {
			if raw, ok := payload[key].(string); ok {
				text = raw
				delete(payload, key)
				break
			}
		}
		matches = append(matches, Match{
			ID:       fmt.Sprint(res.ID),
			Score:    res.Score,
			Text:     text,
			Metadata: payload,
		})
	}
	return matches
}

func (q *qdrantStore) vectorValue(embedding []float32) any {
	if q.vectorName == "" {
		return embedding
	}
	return map[string]any{q.vectorName: embedding}
}

func (q *qdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]any, 0, len(records))
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != q.dimension {
			return fmt.Errorf("qdrant: record %q dimension mismatch (got %d want %d)", rec.ID, len(rec.Embedding), q.dimension)
		}
		payload := core.CloneMap(rec.Metadata)
		if payload == nil {
			payload = make(map[string]any)
		}
		payload["text"] = rec.Text
		points = append(points, map[string]any{
			"id":      rec.ID,
			"vector":  q.vectorValue(rec.Embedding),
			"payload": payload,
		})
	}
	body := map[string]any{"points": points}
	if err := q.doRequest(ctx, http.MethodPut, q.collectionPath("/points?wait=true"), body, nil); err != nil {
		recordVectorError(ctx, "upsert", err)
		return err
	}
	return nil
}

func (q *qdrantStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != q.dimension {
		return nil, fmt.Errorf("qdrant: query dimension mismatch (got %d want %d)", len(query), q.dimension)
	}
	limit := clampTopK(opts.TopK, q.maxTopK)
	var vector any = query
	if q.vectorName != "" {
		vector = map[string]any{"name": q.vectorName, "vector": query}
	}
	request := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := buildQdrantFilter(opts.Filters); filter != nil {
		request["filter"] = filter
	}
	var response struct {
		Result []qdrantSearchResult `json:"result"`
	}
	start := time.Now()
	if err := q.doRequest(ctx, http.MethodPost, q.collectionPath("/points/search"), request, &response); err != nil {
		recordVectorError(ctx, "search", err)
		return nil, err
	}
	matches := mapQdrantResults(response.Result, opts)
	recordVectorSearch(ctx, string(ProviderQdrant), limit, time.Since(start), matches)
	return matches, nil
}

func (q *qdrantStore) Delete(ctx context.Context, filter Filter) error {
	request := map[string]any{}
	if len(filter.IDs) > 0 {
		request["points"] = filter.IDs
	}
	if f := buildQdrantFilter(filter.Metadata); f != nil {
		request["filter"] = f
	}
	if len(request) == 0 {
		return nil
	}
	return q.doRequest(ctx, http.MethodPost, q.collectionPath("/points/delete?wait=true"), request, nil)
}

func (q *qdrantStore) Close(context.Context) error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *qdrantStore) doRequest(ctx context.Context, method, path string, body any, out any) error {
	buf := bytes.NewReader(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		buf = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: request failed: %w", err)
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("qdrant: read response: %w", readErr)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", errQdrantNotFound, method, path)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("qdrant: request failed with status %d: %s", resp.StatusCode, qdrantErrorMessage(payload))
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}

// qdrantErrorMessage extracts status.error (or a plain status string) from an error body.
func qdrantErrorMessage(payload []byte) string {
	var apiErr struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(payload, &apiErr); err != nil || len(apiErr.Status) == 0 {
		return strings.TrimSpace(string(payload))
	}
	var detail struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(apiErr.Status, &detail); err == nil && detail.Error != "" {
		return detail.Error
	}
	var status string
	if err := json.Unmarshal(apiErr.Status, &status); err == nil {
		return status
	}
	return string(apiErr.Status)
}
