package proxima

// Record is a vector record to insert into a store. ID may be left empty,
// in which case the store assigns one and returns it from Insert/Upsert.
type Record struct {
	ID         string
	Vector     []float64
	Metadata   map[string]any
	Content    string
	DocumentID string // optional parent-document identifier
}

// SearchResult is a single ranked match. Score is metric-dependent but
// always "higher means more similar".
type SearchResult struct {
	ID         string
	Score      float64
	Content    string
	Metadata   map[string]any // nil unless metadata is included (the default)
	DocumentID string
	Vector     []float64 // nil unless WithVectors(true)
}

// searchConfig holds resolved search options.
type searchConfig struct {
	topK            int
	minScore        *float64
	filter          map[string]any
	includeMetadata bool
	includeVectors  bool
}

// SearchOption customizes a search.
type SearchOption func(*searchConfig)

func defaultSearchConfig() searchConfig {
	return searchConfig{
		topK:            10,
		includeMetadata: true,
	}
}

// WithTopK sets the number of results to return (default 10).
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithMinScore drops results scoring below the threshold.
func WithMinScore(score float64) SearchOption {
	return func(c *searchConfig) {
		c.minScore = &score
	}
}

// WithFilter restricts results to records whose metadata matches the
// predicate. A filter value is either a scalar compared for equality, or an
// operator map: $in, $gt, $gte, $lt, $lte, $ne.
func WithFilter(filter map[string]any) SearchOption {
	return func(c *searchConfig) {
		c.filter = filter
	}
}

// WithMetadata controls whether results carry metadata and content
// (default true).
func WithMetadata(include bool) SearchOption {
	return func(c *searchConfig) {
		c.includeMetadata = include
	}
}

// WithVectors controls whether results carry the stored vector
// (default false).
func WithVectors(include bool) SearchOption {
	return func(c *searchConfig) {
		c.includeVectors = include
	}
}
