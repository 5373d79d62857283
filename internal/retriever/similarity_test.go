package retriever

import (
	"context"
	"math"
	"testing"

	"github.com/notebase/notebase/internal/embedding"
)

func TestCosine_selfSimilarityIsOne(t *testing.T) {
	e := embedding.NewHashEmbedder(256)
	res, err := e.EmbedBatch(context.Background(), []string{"the same text"})
	if err != nil {
		t.Fatal(err)
	}
	v := res.Vectors[0]
	if got := Cosine(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("self similarity = %f, want 1.0", got)
	}
}

func TestCosine_orthogonalAndOpposite(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := Cosine(a, b); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal similarity = %f, want 0", got)
	}
	c := []float32{-1, 0}
	if got := Cosine(a, c); math.Abs(got+1.0) > 1e-6 {
		t.Errorf("opposite similarity = %f, want -1", got)
	}
}

func TestCosine_zeroVectorDoesNotPanic(t *testing.T) {
	zero := []float32{0, 0, 0}
	got := Cosine(zero, []float32{1, 2, 3})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("degenerate vector produced %f", got)
	}
}
