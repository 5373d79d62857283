package embedding

import (
	"context"
	"testing"
)

// countingEmbedder records how many texts reached the inner embedder.
type countingEmbedder struct {
	inner    *HashEmbedder
	seen     int
	fallback bool
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) (Result, error) {
	c.seen += len(texts)
	res, err := c.inner.EmbedBatch(ctx, texts)
	res.Fallback = c.fallback
	return res, err
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }
func (c *countingEmbedder) Close() error    { return nil }

func TestCachedEmbedder_servesHits(t *testing.T) {
	inner := &countingEmbedder{inner: NewHashEmbedder(16)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := e.EmbedBatch(ctx, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	res, err := e.EmbedBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.seen != 3 {
		t.Errorf("inner should have seen 3 texts, saw %d", inner.seen)
	}
	if len(res.Vectors) != 3 {
		t.Errorf("expected 3 vectors, got %d", len(res.Vectors))
	}
}

func TestCachedEmbedder_doesNotCacheFallbackVectors(t *testing.T) {
	inner := &countingEmbedder{inner: NewHashEmbedder(16), fallback: true}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	res, _ := e.EmbedBatch(ctx, []string{"a"})
	if !res.Fallback {
		t.Error("fallback flag should propagate")
	}
	inner.fallback = false
	_, _ = e.EmbedBatch(ctx, []string{"a"})
	if inner.seen != 2 {
		t.Errorf("fallback vector must not be cached; inner saw %d texts", inner.seen)
	}
}

func TestCachedEmbedder_evictsOldest(t *testing.T) {
	inner := &countingEmbedder{inner: NewHashEmbedder(8)}
	e := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	_, _ = e.EmbedBatch(ctx, []string{"a"})
	_, _ = e.EmbedBatch(ctx, []string{"b"})
	_, _ = e.EmbedBatch(ctx, []string{"c"}) // evicts "a"
	_, _ = e.EmbedBatch(ctx, []string{"a"})
	if inner.seen != 4 {
		t.Errorf("expected 4 inner embeds after eviction, got %d", inner.seen)
	}
}
