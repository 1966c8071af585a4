package proxima

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/proximadb/proxima/index"
)

// overFetchFloor is the minimum candidate count requested from the graph
// index, regardless of topK.
const overFetchFloor = 50

// storedRecord is a record as held in memory. Exactly one of vec64/vec32 is
// set, depending on the store's precision mode.
type storedRecord struct {
	id         string
	vec64      []float64
	vec32      []float32
	metadata   map[string]any
	content    string
	documentID string

	bytes      int64
	seq        uint64 // insertion order, drives eviction
	insertedAt time.Time
}

// vector materializes the stored vector at full precision.
func (r *storedRecord) vector() []float64 {
	if r.vec32 == nil {
		return r.vec64
	}
	out := make([]float64, len(r.vec32))
	for i, v := range r.vec32 {
		out[i] = float64(v)
	}
	return out
}

// MemoryStats describes the memory attributed to vector storage.
type MemoryStats struct {
	UsedBytes      int64
	MaxBytes       int64 // zero when no budget is configured
	RecordCount    int
	AvgRecordBytes int64
	PercentUsed    float64 // zero when no budget is configured
}

// InMemory is a Store holding all records in process memory. Depending on
// Options.Index it either scans linearly (exact) or asks an HNSW graph for
// candidates and re-scores them with the configured metric.
//
// InMemory is not safe for concurrent use; a single writer must own it.
type InMemory struct {
	opts      Options
	records   map[string]*storedRecord
	ann       *index.HNSW // nil in brute-force mode
	usedBytes int64
	nextSeq   uint64
}

var _ Store = (*InMemory)(nil)

func newInMemory(opts Options) *InMemory {
	s := &InMemory{
		opts:    opts,
		records: make(map[string]*storedRecord),
	}
	if opts.Index == IndexHNSW {
		s.ann = index.NewHNSW(index.Config{
			Dimensions:     opts.Dimensions,
			M:              opts.M,
			EfConstruction: opts.EfConstruction,
			EfSearch:       opts.EfSearch,
			RandomSeed:     opts.RandomSeed,
		})
	}
	return s
}

// Insert stores the records, assigning ids where absent, and returns the
// ids in input order. Every record is validated before any mutation; a
// dimension mismatch anywhere fails the whole call with no partial writes.
func (s *InMemory) Insert(ctx context.Context, records []Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for i := range records {
		if err := validateVector(s.opts.Dimensions, records[i].Vector); err != nil {
			return nil, WrapError("Insert", err)
		}
	}

	ids := make([]string, len(records))
	for i := range records {
		id := records[i].ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		s.put(id, records[i])
	}
	return ids, nil
}

// Upsert stores the records with overwrite semantics. For the in-memory
// store this is identical to Insert.
func (s *InMemory) Upsert(ctx context.Context, records []Record) ([]string, error) {
	return s.Insert(ctx, records)
}

func (s *InMemory) put(id string, rec Record) {
	// An overwrite releases the old record's accounting first; its graph
	// position is preserved because the index replaces vectors in place.
	if old, ok := s.records[id]; ok {
		s.usedBytes -= old.bytes
		delete(s.records, id)
	}

	stored := &storedRecord{
		id:         id,
		metadata:   rec.Metadata,
		content:    rec.Content,
		documentID: rec.DocumentID,
		seq:        s.nextSeq,
		insertedAt: time.Now(),
	}
	s.nextSeq++

	if s.opts.ReducedPrecision {
		vec := make([]float32, len(rec.Vector))
		for i, v := range rec.Vector {
			vec[i] = float32(v)
		}
		stored.vec32 = vec
		stored.bytes = int64(len(vec)) * 4
	} else {
		stored.vec64 = append([]float64(nil), rec.Vector...)
		stored.bytes = int64(len(stored.vec64)) * 8
	}

	if s.opts.MaxMemoryBytes > 0 {
		s.evictFor(stored.bytes)
	}

	s.records[id] = stored
	s.usedBytes += stored.bytes
	if s.ann != nil {
		// Validated above, cannot fail.
		_ = s.ann.Insert(id, rec.Vector)
	}
}

// evictFor removes oldest-inserted records until incoming bytes fit the
// budget. The policy is insertion-order FIFO: read access never refreshes a
// record's position. Inserts are never rejected; a record larger than the
// whole budget still lands after everything else is evicted.
func (s *InMemory) evictFor(incoming int64) {
	var evicted []string
	var freed int64

	for s.usedBytes+incoming > s.opts.MaxMemoryBytes && len(s.records) > 0 {
		var oldest *storedRecord
		for _, r := range s.records {
			if oldest == nil || r.seq < oldest.seq {
				oldest = r
			}
		}
		delete(s.records, oldest.id)
		s.usedBytes -= oldest.bytes
		if s.ann != nil {
			s.ann.Delete(oldest.id)
		}
		evicted = append(evicted, oldest.id)
		freed += oldest.bytes
	}

	if len(evicted) > 0 && s.opts.OnEvict != nil {
		s.opts.OnEvict(evicted, freed)
	}
}

// Search returns up to topK results ranked by descending score. In HNSW
// mode the index only proposes which records to consider; final ranking
// always reflects the configured metric against the stored vector.
func (s *InMemory) Search(ctx context.Context, query []float64, opts ...SearchOption) ([]SearchResult, error) {
	if err := validateQuery(s.opts.Dimensions, query); err != nil {
		return nil, WrapError("Search", err)
	}

	cfg := defaultSearchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var scored []SearchResult
	if s.ann != nil {
		scored = s.searchIndexed(query, cfg)
	} else {
		scored = s.searchLinear(query, cfg)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > cfg.topK {
		scored = scored[:cfg.topK]
	}
	return scored, nil
}

// searchLinear scans every record: exact results, O(n) per query. The
// filter runs before scoring since it is the cheaper predicate.
func (s *InMemory) searchLinear(query []float64, cfg searchConfig) []SearchResult {
	results := make([]SearchResult, 0, cfg.topK)
	for _, rec := range s.records {
		if cfg.filter != nil && !matchesFilter(rec.metadata, cfg.filter) {
			continue
		}
		score := scoreVectors(s.opts.Metric, query, rec.vector())
		if cfg.minScore != nil && score < *cfg.minScore {
			continue
		}
		results = append(results, s.result(rec, score, cfg))
	}
	return results
}

// searchIndexed over-fetches graph candidates to compensate for those the
// filter and score threshold will reject, then re-scores each against the
// stored vector with the configured metric.
func (s *InMemory) searchIndexed(query []float64, cfg searchConfig) []SearchResult {
	multiplier := 2
	if cfg.filter != nil {
		multiplier = 4
	}
	fetch := max(cfg.topK*multiplier, overFetchFloor)

	candidates, err := s.ann.Search(query, fetch)
	if err != nil {
		return nil
	}

	results := make([]SearchResult, 0, cfg.topK)
	for _, c := range candidates {
		rec, ok := s.records[c.ID]
		if !ok {
			continue
		}
		if cfg.filter != nil && !matchesFilter(rec.metadata, cfg.filter) {
			continue
		}
		score := scoreVectors(s.opts.Metric, query, rec.vector())
		if cfg.minScore != nil && score < *cfg.minScore {
			continue
		}
		results = append(results, s.result(rec, score, cfg))
	}
	return results
}

func (s *InMemory) result(rec *storedRecord, score float64, cfg searchConfig) SearchResult {
	r := SearchResult{
		ID:    rec.id,
		Score: score,
	}
	if cfg.includeMetadata {
		r.Content = rec.content
		r.Metadata = rec.metadata
		r.DocumentID = rec.documentID
	}
	if cfg.includeVectors {
		r.Vector = rec.vector()
	}
	return r
}

// Get returns a stored record by id, or ErrNotFound.
func (s *InMemory) Get(ctx context.Context, id string) (*Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, WrapError("Get", ErrNotFound)
	}
	return &Record{
		ID:         rec.id,
		Vector:     rec.vector(),
		Metadata:   rec.metadata,
		Content:    rec.content,
		DocumentID: rec.documentID,
	}, nil
}

// Delete removes records by id, releasing their memory accounting and index
// entries. Missing ids are silently ignored.
func (s *InMemory) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		delete(s.records, id)
		s.usedBytes -= rec.bytes
		if s.ann != nil {
			s.ann.Delete(id)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *InMemory) Count(ctx context.Context) (int, error) {
	return len(s.records), nil
}

// Clear removes all records and zeroes memory accounting.
func (s *InMemory) Clear(ctx context.Context) error {
	s.records = make(map[string]*storedRecord)
	s.usedBytes = 0
	if s.ann != nil {
		s.ann.Clear()
	}
	return nil
}

// MemoryUsage returns the bytes currently attributed to vector storage.
func (s *InMemory) MemoryUsage() int64 {
	return s.usedBytes
}

// MemoryStats returns a snapshot of memory accounting. MaxBytes and
// PercentUsed are only meaningful when a budget is configured.
func (s *InMemory) MemoryStats() MemoryStats {
	stats := MemoryStats{
		UsedBytes:   s.usedBytes,
		MaxBytes:    s.opts.MaxMemoryBytes,
		RecordCount: len(s.records),
	}
	if stats.RecordCount > 0 {
		stats.AvgRecordBytes = stats.UsedBytes / int64(stats.RecordCount)
	}
	if stats.MaxBytes > 0 {
		stats.PercentUsed = float64(stats.UsedBytes) / float64(stats.MaxBytes) * 100
	}
	return stats
}

// SetEfSearch adjusts the query-time recall/speed knob. It is a no-op for
// brute-force stores.
func (s *InMemory) SetEfSearch(ef int) {
	if s.ann != nil {
		s.ann.SetEfSearch(ef)
	}
}

// Options returns a snapshot of the construction-time options.
func (s *InMemory) Options() Options {
	return s.opts
}
