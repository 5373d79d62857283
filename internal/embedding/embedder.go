// Package embedding provides text embedding providers: a deterministic
// offline hash embedder, a remote HTTP provider with offline fallback, and
// an LRU cache wrapper.
package embedding

import "context"

// Result carries the vectors for one embed call. Fallback is true when the
// live provider failed and deterministic offline vectors were substituted,
// so callers and tests can observe which path was taken.
type Result struct {
	Vectors  [][]float32
	Fallback bool
}

// Embedder produces fixed-dimension vector embeddings for text. All vectors
// from one embedder share Dimensions(). Implementations must preserve input
// order and return exactly one vector per input.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) (Result, error)
	Dimensions() int
	Close() error
}
