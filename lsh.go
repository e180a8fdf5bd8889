package hubness

import (
	"math/rand"
	"sort"
)

// lshIndex is a random-hyperplane locality-sensitive hash index. Each table
// hashes a point into a bucket by the sign pattern of numBits random
// projections; queries gather the candidate union across tables (with
// single-bit multiprobing) and re-rank candidates with the true metric.
//
// The index is approximate: far neighbors can be missed, but it always
// returns k results when the training set has at least k points, topping up
// from a linear scan when the hash buckets run dry.
type lshIndex struct {
	data      []float64
	n         int
	dims      int
	metric    DistanceMetric
	numTables int
	numBits   int
	// hyperplanes[t*numBits*dims ... ] = normal vectors of table t
	hyperplanes []float64
	tables      []map[uint64][]int
}

func newLSHIndex(data []float64, n, dims int, metric DistanceMetric, numTables, numBits int, seed int64) *lshIndex {
	if numTables < 1 {
		numTables = 8
	}
	if numBits < 1 || numBits > 63 {
		numBits = 12
	}

	rng := rand.New(rand.NewSource(seed))

	x := &lshIndex{
		data:        data,
		n:           n,
		dims:        dims,
		metric:      metric,
		numTables:   numTables,
		numBits:     numBits,
		hyperplanes: make([]float64, numTables*numBits*dims),
		tables:      make([]map[uint64][]int, numTables),
	}

	for i := range x.hyperplanes {
		x.hyperplanes[i] = rng.NormFloat64()
	}

	for t := 0; t < numTables; t++ {
		x.tables[t] = make(map[uint64][]int)
		for i := 0; i < n; i++ {
			key := x.hash(t, data[i*dims:(i+1)*dims])
			x.tables[t][key] = append(x.tables[t][key], i)
		}
	}

	return x
}

// hash computes the sign-pattern bucket key of v under table t.
func (x *lshIndex) hash(t int, v []float64) uint64 {
	var key uint64
	base := t * x.numBits * x.dims
	for b := 0; b < x.numBits; b++ {
		plane := x.hyperplanes[base+b*x.dims : base+(b+1)*x.dims]
		var dot float64
		for j := range v {
			dot += plane[j] * v[j]
		}
		if dot >= 0 {
			key |= 1 << uint(b)
		}
	}
	return key
}

// QueryKNN finds approximate k nearest neighbors for each query row.
// Same result shape as the exact tree backends.
func (x *lshIndex) QueryKNN(queryData []float64, queryRows, k int) ([][]int, [][]float64) {
	indices := make([][]int, queryRows)
	distances := make([][]float64, queryRows)

	for q := 0; q < queryRows; q++ {
		query := queryData[q*x.dims : (q+1)*x.dims]
		candidates := x.candidates(query, k)

		type cand struct {
			idx  int
			dist float64
		}
		ranked := make([]cand, 0, len(candidates))
		for _, i := range candidates {
			d := x.metric.Distance(query, x.data[i*x.dims:(i+1)*x.dims])
			ranked = append(ranked, cand{idx: i, dist: d})
		}
		sort.Slice(ranked, func(a, b int) bool {
			if ranked[a].dist != ranked[b].dist {
				return ranked[a].dist < ranked[b].dist
			}
			return ranked[a].idx < ranked[b].idx
		})

		m := k
		if m > len(ranked) {
			m = len(ranked)
		}
		idx := make([]int, m)
		dist := make([]float64, m)
		for i := 0; i < m; i++ {
			idx[i] = ranked[i].idx
			dist[i] = ranked[i].dist
		}
		indices[q] = idx
		distances[q] = dist
	}

	return indices, distances
}

// candidates gathers the candidate set for a query: exact buckets across all
// tables, then single-bit probes, then a linear top-up if still short of k.
func (x *lshIndex) candidates(query []float64, k int) []int {
	seen := make(map[int]struct{})

	keys := make([]uint64, x.numTables)
	for t := 0; t < x.numTables; t++ {
		keys[t] = x.hash(t, query)
		for _, i := range x.tables[t][keys[t]] {
			seen[i] = struct{}{}
		}
	}

	if len(seen) < k {
		for t := 0; t < x.numTables && len(seen) < k; t++ {
			for b := 0; b < x.numBits && len(seen) < k; b++ {
				probe := keys[t] ^ (1 << uint(b))
				for _, i := range x.tables[t][probe] {
					seen[i] = struct{}{}
				}
			}
		}
	}

	// Top up from a linear scan; only triggers on tiny or degenerate data.
	for i := 0; i < x.n && len(seen) < k; i++ {
		seen[i] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	return out
}
