package mathutil

import (
	"math"
	"testing"
)

func TestDotProduct(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	got := DotProduct(a, b)
	want := float64(32) // 1*4 + 2*5 + 3*6
	if got != want {
		t.Errorf("DotProduct(%v, %v) = %v, want %v", a, b, got, want)
	}
}

func TestNorm(t *testing.T) {
	v := []float64{3, 4}
	got := Norm(v)
	want := float64(5) // sqrt(9+16)
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("Norm(%v) = %v, want %v", v, got, want)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	got := CosineSimilarity(a, b)
	if math.Abs(got) > 0.0001 {
		t.Errorf("CosineSimilarity(%v, %v) = %v, want 0", a, b, got)
	}

	// Same direction
	c := []float64{1, 1}
	d := []float64{2, 2}
	got2 := CosineSimilarity(c, d)
	if math.Abs(got2-1.0) > 0.0001 {
		t.Errorf("CosineSimilarity(%v, %v) = %v, want 1.0", c, d, got2)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{1, 2, 3}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity with zero vector = %v, want 0", got)
	}
}

func TestEuclideanDistance(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	got := EuclideanDistance(a, b)
	want := float64(5)
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("EuclideanDistance(%v, %v) = %v, want %v", a, b, got, want)
	}

	same := []float64{1, 2, 3}
	if got := EuclideanDistance(same, same); got != 0 {
		t.Errorf("EuclideanDistance(v, v) = %v, want 0", got)
	}
}
