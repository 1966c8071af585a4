package mathutil

import "math"

// DotProduct computes the dot product of two vectors.
func DotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm computes the L2 norm (magnitude) of a vector.
func Norm(v []float64) float64 {
	return math.Sqrt(DotProduct(v, v))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 1 for identical directions, 0 for perpendicular, -1 for opposite.
// When either vector has zero magnitude the similarity is defined as 0.
func CosineSimilarity(a, b []float64) float64 {
	dot := DotProduct(a, b)
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

// EuclideanDistance computes the L2 distance between two vectors.
func EuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
