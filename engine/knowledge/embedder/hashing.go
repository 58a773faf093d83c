package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"unicode"
)

// hashClient implements embeddings.EmbedderClient with feature hashing over
// lowercase word tokens. Texts sharing words land close under cosine distance.
type hashClient struct {
	dimension int
}

func (h *hashClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *hashClient) embed(text string) []float32 {
	vector := make([]float32, h.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, word := range words {
		sum := sha256.Sum256([]byte(word))
		idx := binary.BigEndian.Uint32(sum[:4]) % uint32(h.dimension)
		sign := float32(1)
		if sum[4]&1 == 1 {
			sign = -1
		}
		vector[idx] += sign
	}
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
