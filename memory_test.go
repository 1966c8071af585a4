package proxima

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccounting(t *testing.T) {
	ctx := context.Background()

	t.Run("full precision", func(t *testing.T) {
		s := newTestStore(t, Options{Dimensions: 4})
		_, err := s.Insert(ctx, []Record{{ID: "a", Vector: []float64{1, 2, 3, 4}}})
		require.NoError(t, err)
		assert.Equal(t, int64(32), s.MemoryUsage(), "4 dims x 8 bytes")
	})

	t.Run("reduced precision", func(t *testing.T) {
		s := newTestStore(t, Options{Dimensions: 4, ReducedPrecision: true})
		_, err := s.Insert(ctx, []Record{{ID: "a", Vector: []float64{1, 2, 3, 4}}})
		require.NoError(t, err)
		assert.Equal(t, int64(16), s.MemoryUsage(), "4 dims x 4 bytes")
	})
}

func TestMemoryReleasedOnDeleteAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{Dimensions: 2})

	_, err := s.Insert(ctx, []Record{
		{ID: "a", Vector: []float64{1, 0}},
		{ID: "b", Vector: []float64{0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(32), s.MemoryUsage())

	// Overwrite releases the old accounting instead of stacking.
	_, err = s.Insert(ctx, []Record{{ID: "a", Vector: []float64{0.5, 0.5}}})
	require.NoError(t, err)
	assert.Equal(t, int64(32), s.MemoryUsage())

	require.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, int64(16), s.MemoryUsage())

	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.MemoryUsage())
}

// TestEvictionOldestFirst sizes the budget to exactly three reduced
// precision records; the fourth insert must evict the single oldest record
// and report it through the callback.
func TestEvictionOldestFirst(t *testing.T) {
	ctx := context.Background()

	var evictedIDs []string
	var freedBytes int64
	s := newTestStore(t, Options{
		Dimensions:       4,
		ReducedPrecision: true,
		MaxMemoryBytes:   48, // 3 records x 16 bytes
		OnEvict: func(ids []string, bytes int64) {
			evictedIDs = append(evictedIDs, ids...)
			freedBytes += bytes
		},
	})

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, []Record{{ID: fmt.Sprintf("r%d", i), Vector: []float64{1, 2, 3, 4}}})
		require.NoError(t, err)
	}
	assert.Empty(t, evictedIDs, "inserts within budget must not evict")

	_, err := s.Insert(ctx, []Record{{ID: "r3", Vector: []float64{1, 2, 3, 4}}})
	require.NoError(t, err)

	assert.Equal(t, []string{"r0"}, evictedIDs, "oldest-inserted record evicts first")
	assert.Equal(t, int64(16), freedBytes)

	count, _ := s.Count(ctx)
	assert.Equal(t, 3, count)

	_, err = s.Get(ctx, "r0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvictionIsInsertionOrderNotLRU(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{
		Dimensions:     2,
		MaxMemoryBytes: 32, // 2 records x 16 bytes
	})

	_, err := s.Insert(ctx, []Record{
		{ID: "old", Vector: []float64{1, 0}},
		{ID: "new", Vector: []float64{0, 1}},
	})
	require.NoError(t, err)

	// Reading "old" does not refresh its position: eviction order is
	// strictly by insertion.
	_, err = s.Search(ctx, []float64{1, 0}, WithTopK(1))
	require.NoError(t, err)
	_, err = s.Get(ctx, "old")
	require.NoError(t, err)

	_, err = s.Insert(ctx, []Record{{ID: "newest", Vector: []float64{1, 1}}})
	require.NoError(t, err)

	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound, "oldest-inserted evicts even if recently read")
	_, err = s.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestEvictionRemovesIndexEntries(t *testing.T) {
	ctx := context.Background()
	seed := int64(3)
	s := newTestStore(t, Options{
		Dimensions:     2,
		Index:          IndexHNSW,
		RandomSeed:     &seed,
		MaxMemoryBytes: 32,
	})

	_, err := s.Insert(ctx, []Record{
		{ID: "a", Vector: []float64{1, 0}},
		{ID: "b", Vector: []float64{0, 1}},
		{ID: "c", Vector: []float64{1, 1}},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float64{1, 0}, WithTopK(10))
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a", r.ID, "evicted record must not surface via the index")
	}
}

func TestEvictionOversizedRecordStillInserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{Dimensions: 4, MaxMemoryBytes: 8})

	// A record bigger than the whole budget evicts everything else but is
	// never rejected.
	_, err := s.Insert(ctx, []Record{{ID: "huge", Vector: []float64{1, 2, 3, 4}}})
	require.NoError(t, err)

	count, _ := s.Count(ctx)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(32), s.MemoryUsage())
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{Dimensions: 4, ReducedPrecision: true, MaxMemoryBytes: 64})

	stats := s.MemoryStats()
	assert.Zero(t, stats.UsedBytes)
	assert.Zero(t, stats.RecordCount)
	assert.Zero(t, stats.PercentUsed)

	_, err := s.Insert(ctx, []Record{
		{ID: "a", Vector: []float64{1, 2, 3, 4}},
		{ID: "b", Vector: []float64{5, 6, 7, 8}},
	})
	require.NoError(t, err)

	stats = s.MemoryStats()
	assert.Equal(t, int64(32), stats.UsedBytes)
	assert.Equal(t, int64(64), stats.MaxBytes)
	assert.Equal(t, 2, stats.RecordCount)
	assert.Equal(t, int64(16), stats.AvgRecordBytes)
	assert.InDelta(t, 50.0, stats.PercentUsed, 1e-9)
}

func TestReducedPrecisionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, Options{Dimensions: 2, ReducedPrecision: true})

	_, err := s.Insert(ctx, []Record{{ID: "a", Vector: []float64{0.25, 0.5}}})
	require.NoError(t, err)

	// Values exactly representable in float32 survive the round trip.
	rec, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5}, rec.Vector)
}

func TestSetEfSearch(t *testing.T) {
	bf := newTestStore(t, Options{Dimensions: 2})
	bf.SetEfSearch(500) // no-op in brute-force mode

	seed := int64(5)
	hnsw := newTestStore(t, Options{Dimensions: 2, Index: IndexHNSW, RandomSeed: &seed})
	hnsw.SetEfSearch(500)

	ctx := context.Background()
	_, err := hnsw.Insert(ctx, []Record{{ID: "a", Vector: []float64{1, 0}}})
	require.NoError(t, err)
	results, err := hnsw.Search(ctx, []float64{1, 0}, WithTopK(1))
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
