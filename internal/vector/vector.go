package vector

import "math"

// Dot computes the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm computes the L2 norm (magnitude) of a vector.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 1 for identical directions, 0 for perpendicular, -1 for opposite.
// A zero-norm operand yields 0 rather than NaN so scores stay sortable.
func CosineSimilarity(a, b []float32) float32 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}
