package embedding

import (
	"context"
	"testing"
)

func TestHashEmbedder_deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.EmbedBatch(ctx, []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Fallback || b.Fallback {
		t.Error("hash embedder should never report fallback")
	}
	for i := range a.Vectors[0] {
		if a.Vectors[0][i] != b.Vectors[0][i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

func TestHashEmbedder_shapeAndRange(t *testing.T) {
	e := NewHashEmbedder(1024)
	res, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(res.Vectors))
	}
	for _, v := range res.Vectors {
		if len(v) != 1024 {
			t.Fatalf("expected dim 1024, got %d", len(v))
		}
		for _, x := range v {
			if x < -1 || x > 1 {
				t.Fatalf("component %f out of [-1,1]", x)
			}
		}
	}
}

func TestHashEmbedder_distinctTexts(t *testing.T) {
	e := NewHashEmbedder(32)
	res, _ := e.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	same := true
	for i := range res.Vectors[0] {
		if res.Vectors[0][i] != res.Vectors[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashEmbedder_defaultDimensions(t *testing.T) {
	if NewHashEmbedder(0).Dimensions() != 1024 {
		t.Error("dimension should default to 1024")
	}
}
