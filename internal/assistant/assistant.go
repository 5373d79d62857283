// Package assistant orchestrates retrieval, prompt assembly, and answer
// generation for ask requests.
package assistant

import (
	"context"

	"go.uber.org/zap"

	"github.com/notebase/notebase/internal/llm"
	"github.com/notebase/notebase/internal/models"
	"github.com/notebase/notebase/internal/prompt"
	"github.com/notebase/notebase/internal/retriever"
)

// Assistant answers questions grounded in retrieved context.
type Assistant struct {
	retriever *retriever.Retriever
	generator llm.Generator
	logger    *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets a logger for ask events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// New creates an assistant.
func New(r *retriever.Retriever, g llm.Generator, opts ...Option) *Assistant {
	a := &Assistant{retriever: r, generator: g}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask retrieves context for the question and generates an answer from it.
// When retrieval returns nothing, the generator is never invoked and the
// canonical not-found answer is returned ungrounded: the assistant refuses
// to fabricate.
func (a *Assistant) Ask(ctx context.Context, tenant models.Tenant, question string, topK int) (*models.Answer, error) {
	hits, err := a.retriever.Retrieve(ctx, tenant, question, topK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &models.Answer{
			Answer:   prompt.NotFoundAnswer,
			Grounded: false,
			Sources:  []models.SourceRef{},
		}, nil
	}

	answer := a.generator.Generate(ctx, prompt.Build(question, hits))
	topScore := hits[0].Score

	sources := make([]models.SourceRef, len(hits))
	for i, h := range hits {
		sources[i] = models.SourceRef{
			ChunkID:    h.ChunkID,
			DocTitle:   h.DocTitle,
			DocSource:  h.DocSource,
			ChunkIndex: h.ChunkIndex,
			Score:      h.Score,
		}
	}
	if a.logger != nil {
		a.logger.Debug("question answered",
			zap.String("notebook", tenant.Notebook),
			zap.Int("hits", len(hits)),
			zap.Float64("top_score", topScore),
		)
	}
	return &models.Answer{
		Answer:   answer,
		Grounded: true,
		TopScore: &topScore,
		Sources:  sources,
	}, nil
}
