// Package index provides approximate nearest neighbor candidate generation.
package index

// Candidate is a nearest-neighbor match proposed by an index.
type Candidate struct {
	ID       string
	Distance float64
}

// Index generates nearest-neighbor candidates for a query vector. Distances
// are index-internal; callers re-score candidates with their own metric.
type Index interface {
	// Insert adds a vector, or replaces it in place if the id exists.
	Insert(id string, vector []float64) error

	// Search returns up to k candidates ordered by ascending distance.
	Search(query []float64, k int) ([]Candidate, error)

	// Delete removes a vector. Returns false if the id is absent.
	Delete(id string) bool

	// Has reports whether the id is present.
	Has(id string) bool

	// Len returns the number of indexed vectors.
	Len() int

	// Clear removes all vectors.
	Clear()
}
