package retriever

import "math"

// normEpsilon guards against division by zero on degenerate all-zero vectors.
const normEpsilon = 1e-12

// Cosine returns the cosine similarity of two equal-length vectors:
// dot(a,b) / ((|a|+eps) * (|b|+eps)).
func Cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / ((l2Norm(a) + normEpsilon) * (l2Norm(b) + normEpsilon))
}

func l2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
