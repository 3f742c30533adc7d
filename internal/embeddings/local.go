package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

const defaultLocalDimensions = 128

// LocalEmbedder produces deterministic embeddings without calling any
// external service. Each token hashes into a bucket and the vector is
// L2-normalized, so texts sharing tokens land near each other. Far
// below a real model in quality; it exists for offline runs and
// tests.
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder creates a local embedder with the given vector
// size (128 when <= 0).
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = defaultLocalDimensions
	}
	return &LocalEmbedder{dimensions: dimensions}
}

func (e *LocalEmbedder) Name() string {
	return "local"
}

func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.embedText(text)
	}
	return results, nil
}

func (e *LocalEmbedder) embedText(text string) []float32 {
	vec := make([]float32, e.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(token))
		bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(e.dimensions)
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Keep empty texts representable; cosine similarity cannot
		// handle a zero vector.
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
