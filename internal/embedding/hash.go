package embedding

import (
	"context"
	"crypto/sha256"
)

// HashEmbedder is a deterministic offline embedder: the SHA-256 digest of
// the text is expanded to the configured dimension, each byte mapped into
// [-1, 1]. The same text always yields the identical vector, which keeps
// ingestion and retrieval exercisable without a live model and keeps tests
// deterministic. It carries no semantic signal.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing deterministic vectors of the
// given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &HashEmbedder{dimensions: dimensions}
}

// EmbedBatch returns one deterministic vector per input text. It never fails.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) (Result, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return Result{Vectors: vectors}, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	digest := sha256.Sum256([]byte(text))
	vec := make([]float32, e.dimensions)
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = float32(b)/255.0*2.0 - 1.0
	}
	return vec
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
