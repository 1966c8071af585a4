// Package proxima is an embeddable similarity-search engine for
// high-dimensional vectors: given a collection of embeddings, it answers
// "which K are closest to this query" under a configurable distance metric,
// either exactly (brute force) or approximately via an HNSW graph index.
//
// Stores are designed for single-writer use: no method blocks on I/O and no
// internal locking is performed. Hosts with multiple goroutines must
// serialize access externally (a single-owner goroutine or an RWMutex around
// the store).
package proxima

import (
	"fmt"
)

// Version of the proxima library
const Version = "0.1.0"

// Options configures a store at construction time. Only EfSearch is
// adjustable afterwards.
type Options struct {
	// Dimensions is the required vector dimensionality. Every stored and
	// query vector must have exactly this length.
	Dimensions int

	// Metric selects how final similarity scores are computed
	// (default MetricCosine).
	Metric Metric

	// Index selects the search strategy (default IndexBruteForce).
	Index IndexKind

	// HNSW tuning, used only when Index is IndexHNSW.
	M              int // max connections per node per layer (default 16)
	EfConstruction int // build-time candidate list size (default 200)
	EfSearch       int // query-time candidate list size (default 100)

	// RandomSeed seeds the HNSW level generator for reproducible graphs.
	RandomSeed *int64

	// ReducedPrecision stores vectors as float32, roughly halving memory.
	ReducedPrecision bool

	// MaxMemoryBytes bounds the bytes attributed to vector storage; zero
	// means unbounded. When an insert would exceed the budget, the
	// oldest-inserted records are evicted first (insertion-order FIFO, not
	// true LRU: reads do not refresh a record's position).
	MaxMemoryBytes int64

	// OnEvict, if set, is called after an insert that evicted records with
	// the evicted ids and the total bytes freed.
	OnEvict func(ids []string, bytesFreed int64)
}

// DefaultOptions returns sensible defaults for the given dimensionality.
func DefaultOptions(dimensions int) Options {
	return Options{
		Dimensions:     dimensions,
		Metric:         MetricCosine,
		Index:          IndexBruteForce,
		M:              16,
		EfConstruction: 200,
		EfSearch:       100,
	}
}

func (o Options) withDefaults() Options {
	if o.Metric == "" {
		o.Metric = MetricCosine
	}
	if o.Index == "" {
		o.Index = IndexBruteForce
	}
	if o.M == 0 {
		o.M = 16
	}
	if o.EfConstruction == 0 {
		o.EfConstruction = 200
	}
	if o.EfSearch == 0 {
		o.EfSearch = 100
	}
	return o
}

// Validate checks the options for construction-time errors.
func (o Options) Validate() error {
	if o.Dimensions <= 0 {
		return fmt.Errorf("proxima: dimensions must be positive, got %d", o.Dimensions)
	}
	switch o.Metric {
	case "", MetricCosine, MetricEuclidean, MetricDotProduct:
	default:
		return fmt.Errorf("proxima: unknown metric %q", o.Metric)
	}
	switch o.Index {
	case "", IndexBruteForce, IndexHNSW:
	default:
		return fmt.Errorf("proxima: unknown index kind %q", o.Index)
	}
	if o.M < 0 || o.EfConstruction < 0 || o.EfSearch < 0 {
		return fmt.Errorf("proxima: HNSW parameters must be non-negative")
	}
	if o.MaxMemoryBytes < 0 {
		return fmt.Errorf("proxima: max memory bytes must be non-negative")
	}
	return nil
}

// New creates an in-memory store from the options.
func New(opts Options) (*InMemory, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newInMemory(opts.withDefaults()), nil
}
