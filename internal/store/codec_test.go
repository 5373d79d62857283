package store

import "testing"

func TestVectorCodec_roundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, -0.25, 3.14159}
	out, err := decodeVector(encodeVector(in), len(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("component %d: %f != %f", i, out[i], in[i])
		}
	}
}

func TestDecodeVector_lengthMismatch(t *testing.T) {
	b := encodeVector([]float32{1, 2})
	if _, err := decodeVector(b, 3); err == nil {
		t.Error("expected error for short payload")
	}
	if _, err := decodeVector(b, 1); err == nil {
		t.Error("expected error for long payload")
	}
	if _, err := decodeVector(b, 0); err == nil {
		t.Error("expected error for zero dimension")
	}
}
