package index

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/proximadb/proxima/internal/mathutil"
)

// Config configures the HNSW index.
type Config struct {
	Dimensions     int    // Vector dimensionality (required)
	M              int    // Max connections per node per layer (default 16)
	EfConstruction int    // Candidate list size while building (default 200)
	EfSearch       int    // Candidate list size while querying (default 100)
	RandomSeed     *int64 // Optional seed for reproducible level draws
}

func (c Config) withDefaults() Config {
	if c.M == 0 {
		c.M = 16
	}
	if c.EfConstruction == 0 {
		c.EfConstruction = 200
	}
	if c.EfSearch == 0 {
		c.EfSearch = 100
	}
	return c
}

// node is an HNSW graph node. links[layer] maps a neighbor id to the cached
// distance to that neighbor; layers 0..level are populated.
type node struct {
	id     string
	vector []float64
	level  int
	links  []map[string]float64
}

// HNSW is a Hierarchical Navigable Small World graph index. Distances are
// always Euclidean internally, regardless of the metric a hosting store uses
// for final scoring; callers re-rank the returned candidates themselves.
//
// HNSW is not safe for concurrent use. A single writer must own the index;
// embedders in multi-goroutine hosts serialize access externally.
type HNSW struct {
	nodes    map[string]*node
	entry    string // "" iff the graph is empty
	maxLevel int

	mL    float64 // level decay multiplier, 1/ln(M)
	maxM0 int     // layer-0 connection cap, 2*M

	cfg Config
	rng *rand.Rand
}

var _ Index = (*HNSW)(nil)

// NewHNSW creates an empty HNSW index.
func NewHNSW(cfg Config) *HNSW {
	cfg = cfg.withDefaults()
	seed := time.Now().UnixNano()
	if cfg.RandomSeed != nil {
		seed = *cfg.RandomSeed
	}
	return &HNSW{
		nodes: make(map[string]*node),
		mL:    1.0 / math.Log(float64(cfg.M)),
		maxM0: cfg.M * 2,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Config returns a snapshot of the index configuration.
func (h *HNSW) Config() Config {
	return h.cfg
}

// SetEfSearch adjusts the query-time candidate list size. Larger values
// improve recall at the cost of latency; construction quality of nodes
// already inserted is unaffected.
func (h *HNSW) SetEfSearch(ef int) {
	if ef > 0 {
		h.cfg.EfSearch = ef
	}
}

// Insert adds a vector to the graph. Inserting an existing id replaces the
// stored vector in place without restructuring the node's connections.
func (h *HNSW) Insert(id string, vector []float64) error {
	if len(vector) != h.cfg.Dimensions {
		return fmt.Errorf("index: vector dimension mismatch: expected %d, got %d", h.cfg.Dimensions, len(vector))
	}

	vec := append([]float64(nil), vector...)

	if existing, ok := h.nodes[id]; ok {
		existing.vector = vec
		return nil
	}

	level := h.randomLevel()
	n := &node{
		id:     id,
		vector: vec,
		level:  level,
		links:  make([]map[string]float64, level+1),
	}
	for i := range n.links {
		n.links[i] = make(map[string]float64, h.cfg.M)
	}
	h.nodes[id] = n

	if h.entry == "" {
		h.entry = id
		h.maxLevel = level
		return nil
	}

	// Descend through layers above the new node's level, moving the cursor
	// greedily without adding edges.
	cursor := h.entry
	for l := h.maxLevel; l > level; l-- {
		cursor = h.greedyStep(vec, cursor, l)
	}

	for l := min(level, h.maxLevel); l >= 0; l-- {
		candidates := h.searchLayer(vec, cursor, h.cfg.EfConstruction, l)

		m := h.cfg.M
		if l == 0 {
			m = h.maxM0
		}

		for _, c := range h.selectNeighbors(candidates, m) {
			n.links[l][c.ID] = c.Distance
			nb := h.nodes[c.ID]
			if nb == nil || l >= len(nb.links) {
				continue
			}
			nb.links[l][id] = c.Distance
			if len(nb.links[l]) > m {
				h.pruneConnections(nb, l, m)
			}
		}

		if len(candidates) > 0 {
			cursor = candidates[0].ID
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entry = id
	}
	return nil
}

// Search returns up to k candidates ordered by ascending Euclidean distance.
// An empty graph yields an empty result, not an error.
func (h *HNSW) Search(query []float64, k int) ([]Candidate, error) {
	if len(query) != h.cfg.Dimensions {
		return nil, fmt.Errorf("index: query dimension mismatch: expected %d, got %d", h.cfg.Dimensions, len(query))
	}
	if h.entry == "" {
		return nil, nil
	}

	cursor := h.entry
	for l := h.maxLevel; l > 0; l-- {
		cursor = h.greedyStep(query, cursor, l)
	}

	candidates := h.searchLayer(query, cursor, max(h.cfg.EfSearch, k), 0)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Delete removes a node and repairs direct neighbor back-references. The
// graph is not rebuilt, so heavy deletion gradually degrades navigability;
// hosts that churn records should rebuild the index periodically.
func (h *HNSW) Delete(id string) bool {
	n, ok := h.nodes[id]
	if !ok {
		return false
	}

	for l, links := range n.links {
		for nbID := range links {
			if nb, ok := h.nodes[nbID]; ok && l < len(nb.links) {
				delete(nb.links[l], id)
			}
		}
	}
	delete(h.nodes, id)

	if h.entry == id {
		// Promote the remaining node with the highest level. Deletions are
		// assumed infrequent relative to search, so a linear scan is fine.
		h.entry = ""
		h.maxLevel = 0
		for _, cand := range h.nodes {
			if h.entry == "" || cand.level > h.maxLevel {
				h.entry = cand.id
				h.maxLevel = cand.level
			}
		}
	}
	return true
}

// Has reports whether the id is present.
func (h *HNSW) Has(id string) bool {
	_, ok := h.nodes[id]
	return ok
}

// Len returns the number of indexed vectors.
func (h *HNSW) Len() int {
	return len(h.nodes)
}

// Clear drops all nodes and resets the entry point.
func (h *HNSW) Clear() {
	h.nodes = make(map[string]*node)
	h.entry = ""
	h.maxLevel = 0
}

// randomLevel draws a level with exponentially decaying probability:
// floor(-ln(U) * mL) for U uniform in (0, 1].
func (h *HNSW) randomLevel() int {
	u := 1 - h.rng.Float64()
	return int(math.Floor(-math.Log(u) * h.mL))
}

// greedyStep repeatedly moves to whichever neighbor at the given layer is
// closer to the query, stopping at a local minimum.
func (h *HNSW) greedyStep(query []float64, entry string, layer int) string {
	curID := entry
	cur := h.nodes[curID]
	curDist := mathutil.EuclideanDistance(query, cur.vector)

	for {
		changed := false
		if layer < len(cur.links) {
			for nbID := range cur.links[layer] {
				nb := h.nodes[nbID]
				if nb == nil {
					continue
				}
				if d := mathutil.EuclideanDistance(query, nb.vector); d < curDist {
					curID, cur, curDist = nbID, nb, d
					changed = true
				}
			}
		}
		if !changed {
			return curID
		}
	}
}

// searchLayer runs a bounded beam search at one layer, keeping the best ef
// candidates seen. Results are returned in ascending distance order.
func (h *HNSW) searchLayer(query []float64, entry string, ef, layer int) []Candidate {
	entryDist := mathutil.EuclideanDistance(query, h.nodes[entry].vector)

	visited := map[string]struct{}{entry: {}}
	frontier := &distHeap{}
	frontier.push(Candidate{ID: entry, Distance: entryDist})
	results := newResultSet(ef)
	results.add(Candidate{ID: entry, Distance: entryDist})

	for frontier.len() > 0 {
		cur := frontier.pop()
		if results.full() && cur.Distance > results.worst() {
			break
		}

		n := h.nodes[cur.ID]
		if n == nil || layer >= len(n.links) {
			continue
		}
		for nbID := range n.links[layer] {
			if _, seen := visited[nbID]; seen {
				continue
			}
			visited[nbID] = struct{}{}

			nb := h.nodes[nbID]
			if nb == nil {
				continue
			}
			d := mathutil.EuclideanDistance(query, nb.vector)
			if !results.full() || d < results.worst() {
				frontier.push(Candidate{ID: nbID, Distance: d})
				results.add(Candidate{ID: nbID, Distance: d})
			}
		}
	}
	return results.items
}

// selectNeighbors applies the diversity heuristic: walking candidates in
// ascending distance order, a candidate is rejected when some already-chosen
// neighbor is closer to it than the new node is. Remaining slots are filled
// with the closest rejected candidates.
func (h *HNSW) selectNeighbors(candidates []Candidate, m int) []Candidate {
	if len(candidates) <= m {
		return candidates
	}

	selected := make([]Candidate, 0, m)
	var rejected []Candidate
	for _, c := range candidates {
		if len(selected) == m {
			break
		}
		cv := h.nodes[c.ID].vector
		diverse := true
		for _, a := range selected {
			if mathutil.EuclideanDistance(cv, h.nodes[a.ID].vector) < c.Distance {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c)
		} else {
			rejected = append(rejected, c)
		}
	}
	for _, c := range rejected {
		if len(selected) == m {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

// pruneConnections trims an over-cap adjacency back down to m, keeping the
// closest links by their cached distances.
func (h *HNSW) pruneConnections(n *node, layer, m int) {
	links := n.links[layer]
	if len(links) <= m {
		return
	}

	edges := make([]Candidate, 0, len(links))
	for id, d := range links {
		edges = append(edges, Candidate{ID: id, Distance: d})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Distance < edges[j].Distance })

	kept := make(map[string]float64, m)
	for _, e := range edges[:m] {
		kept[e.ID] = e.Distance
	}
	n.links[layer] = kept
}

// distHeap is a min-heap of candidates ordered by distance, used as the
// beam search frontier.
type distHeap struct {
	items []Candidate
}

func (h *distHeap) len() int { return len(h.items) }

func (h *distHeap) push(c Candidate) {
	h.items = append(h.items, c)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Distance >= h.items[parent].Distance {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *distHeap) pop() Candidate {
	top := h.items[0]
	h.items[0] = h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]

	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < len(h.items) && h.items[left].Distance < h.items[smallest].Distance {
			smallest = left
		}
		if right < len(h.items) && h.items[right].Distance < h.items[smallest].Distance {
			smallest = right
		}
		if smallest == i {
			return top
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// resultSet keeps the cap best candidates seen, ordered ascending by
// distance; the worst is discarded once the cap is exceeded.
type resultSet struct {
	items []Candidate
	cap   int
}

func newResultSet(cap int) *resultSet {
	return &resultSet{items: make([]Candidate, 0, cap+1), cap: cap}
}

func (r *resultSet) add(c Candidate) {
	i := sort.Search(len(r.items), func(i int) bool {
		return r.items[i].Distance > c.Distance
	})
	r.items = append(r.items, Candidate{})
	copy(r.items[i+1:], r.items[i:])
	r.items[i] = c
	if len(r.items) > r.cap {
		r.items = r.items[:r.cap]
	}
}

func (r *resultSet) full() bool { return len(r.items) >= r.cap }

func (r *resultSet) worst() float64 { return r.items[len(r.items)-1].Distance }
