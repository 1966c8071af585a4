package proxima

import (
	"context"

	"github.com/proximadb/proxima/internal/mathutil"
)

// Metric selects how similarity scores are computed. Regardless of metric,
// a higher returned score always means more similar.
type Metric string

const (
	// MetricCosine scores by cosine similarity (default).
	MetricCosine Metric = "cosine"
	// MetricEuclidean converts L2 distance to similarity via 1/(1+d).
	MetricEuclidean Metric = "euclidean"
	// MetricDotProduct scores by the raw dot product.
	MetricDotProduct Metric = "dotproduct"
)

// IndexKind selects the search strategy of a store.
type IndexKind string

const (
	// IndexBruteForce scans every stored record per query. Exact, O(n).
	IndexBruteForce IndexKind = "bruteforce"
	// IndexHNSW delegates candidate generation to a navigable graph index.
	// Approximate above the candidate count, sublinear.
	IndexHNSW IndexKind = "hnsw"
)

// Store is the vector store contract. Methods accept a context for
// uniformity with implementations backed by external resources; the
// in-memory store never blocks and does not consult it.
//
// Implementations are not required to be safe for concurrent use; callers
// serialize access externally.
type Store interface {
	// Insert stores the records and returns their ids in input order,
	// assigning ids to records inserted without one. Existing ids are
	// overwritten in place. Empty input is a no-op returning empty output.
	Insert(ctx context.Context, records []Record) ([]string, error)

	// Upsert stores the records with overwrite semantics. The default
	// behavior is identical to Insert; stores with a native upsert may
	// implement it differently.
	Upsert(ctx context.Context, records []Record) ([]string, error)

	// Search returns up to topK results ranked by descending score.
	Search(ctx context.Context, query []float64, opts ...SearchOption) ([]SearchResult, error)

	// Delete removes records by id. Missing ids are silently ignored.
	Delete(ctx context.Context, ids ...string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// validateVector checks a vector to be inserted against the configured
// dimensionality. Absent and empty vectors are dimension errors too, never
// silently padded.
func validateVector(dimensions int, vec []float64) error {
	if len(vec) != dimensions {
		return &DimensionError{Want: dimensions, Got: len(vec)}
	}
	return nil
}

// validateQuery checks a query vector: it must be present, non-empty, and
// of the configured dimensionality.
func validateQuery(dimensions int, query []float64) error {
	if len(query) == 0 {
		return ErrInvalidQuery
	}
	if len(query) != dimensions {
		return &DimensionError{Want: dimensions, Got: len(query)}
	}
	return nil
}

// scoreVectors computes the similarity of two equal-length vectors under
// the given metric, normalized so that higher always means more similar.
func scoreVectors(metric Metric, a, b []float64) float64 {
	switch metric {
	case MetricEuclidean:
		return 1 / (1 + mathutil.EuclideanDistance(a, b))
	case MetricDotProduct:
		return mathutil.DotProduct(a, b)
	default:
		return mathutil.CosineSimilarity(a, b)
	}
}
