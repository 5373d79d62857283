// Package ingest orchestrates chunking, embedding, and storage of documents.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/chunker"
	"github.com/notebase/notebase/internal/embedding"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/store"
)

// Pipeline turns raw text into a stored document with embedded chunks.
type Pipeline struct {
	store    store.Store
	embedder embedding.Embedder
	chunker  *chunker.Chunker
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates an ingestion pipeline.
func New(s store.Store, e embedding.Embedder, c *chunker.Chunker, opts ...Option) *Pipeline {
	p := &Pipeline{store: s, embedder: e, chunker: c}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest creates the document row, chunks the text, embeds all chunk
// contents in one batch, and persists the chunks in one transaction.
// Empty or whitespace-only text is a valid ingest: the document is recorded
// with zero chunks. Returns the document id and the number of chunks stored.
func (p *Pipeline) Ingest(ctx context.Context, tenant models.Tenant, title, source, text string) (string, int, error) {
	doc := &models.Document{
		ID:       uuid.New().String(),
		UserID:   tenant.UserID,
		Notebook: tenant.Notebook,
		Title:    title,
		Source:   source,
	}
	// The document row goes in first so a zero-chunk document is still
	// visible and addressable.
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return "", 0, fmt.Errorf("failed to store document: %w", err)
	}

	pieces := p.chunker.Chunk(text)
	if len(pieces) == 0 {
		return doc.ID, 0, nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}
	res, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if res.Fallback && p.logger != nil {
		p.logger.Warn("chunks embedded via offline fallback",
			zap.String("document_id", doc.ID),
			zap.Int("chunks", len(pieces)),
		)
	}

	chunks := make([]*models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &models.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			UserID:     tenant.UserID,
			Notebook:   tenant.Notebook,
			Index:      piece.Index,
			Content:    piece.Content,
			Embedding:  res.Vectors[i],
		}
	}
	if err := p.store.AddChunks(ctx, chunks); err != nil {
		return "", 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("document ingested",
			zap.String("document_id", doc.ID),
			zap.String("notebook", tenant.Notebook),
			zap.Int("chunks", len(chunks)),
		)
	}
	return doc.ID, len(chunks), nil
}
