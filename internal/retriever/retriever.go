// Package retriever ranks a tenant's stored chunks against a query by
// cosine similarity.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/store"
)

// Retriever is a stateless scorer over externally-owned state: each call
// embeds the query, loads the full tenant candidate set, and scans it.
// There is no index and no caching of stored chunks; read cost is linear in
// the tenant's corpus size.
type Retriever struct {
	store    store.Store
	embedder embedding.Embedder
	topK     int
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for debug events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a retriever. defaultTopK is used when a call passes topK <= 0.
func New(s store.Store, e embedding.Embedder, defaultTopK int, opts ...Option) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	r := &Retriever{store: s, embedder: e, topK: defaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK hits for the query, descending by cosine
// score. Equal scores keep storage insertion order. An empty candidate set
// yields an empty result, never an error; a dimension mismatch between the
// query vector and any stored chunk fails the whole call, since it signals
// embedding-model configuration drift that would corrupt the ranking.
func (r *Retriever) Retrieve(ctx context.Context, tenant models.Tenant, query string, topK int) ([]*models.Hit, error) {
	if topK <= 0 {
		topK = r.topK
	}

	res, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := res.Vectors[0]
	if res.Fallback && r.logger != nil {
		r.logger.Warn("query embedded via offline fallback", zap.String("notebook", tenant.Notebook))
	}

	candidates, err := r.store.ListChunks(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	hits := make([]*models.Hit, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Dim != len(queryVec) {
			return nil, fmt.Errorf("chunk %s has embedding dimension %d, query has %d: embedding model configuration drift",
				cand.ID, cand.Dim, len(queryVec))
		}
		hits = append(hits, &models.Hit{
			ChunkID:    cand.ID,
			DocTitle:   cand.DocTitle,
			DocSource:  cand.DocSource,
			Notebook:   cand.Notebook,
			ChunkIndex: cand.Index,
			Content:    cand.Content,
			Score:      Cosine(queryVec, cand.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}
