package hubness

import (
	"fmt"
	"sort"
)

// NeighborGraph is a directed k-nearest-neighbor graph in fixed-k sparse form.
// Row q holds the K nearest training points of query q in ascending distance
// order, ties broken by lower index. For a graph built over the training set
// itself, Rows == N and self-edges are excluded.
//
// The layout is row-major: neighbor slot j of row q lives at q*K+j in both
// Indices and Dists. Indptr provides the equivalent CSR row pointers.
type NeighborGraph struct {
	Rows    int // number of query rows
	N       int // number of training points (columns)
	K       int // neighbors per row
	Indices []int
	Dists   []float64
}

// Row returns the neighbor indices and distances of row q, nearest first.
// The returned slices alias the graph's backing arrays.
func (g *NeighborGraph) Row(q int) ([]int, []float64) {
	return g.Indices[q*g.K : (q+1)*g.K], g.Dists[q*g.K : (q+1)*g.K]
}

// Indptr returns CSR row pointers: row q occupies [Indptr[q], Indptr[q+1])
// in Indices and Dists. Every row holds exactly K entries.
func (g *NeighborGraph) Indptr() []int {
	ptr := make([]int, g.Rows+1)
	for i := 1; i <= g.Rows; i++ {
		ptr[i] = i * g.K
	}
	return ptr
}

// KOccurrence counts, for each training point, how many times it appears as a
// neighbor across all rows. The result has length N and sums to Rows*K.
func (g *NeighborGraph) KOccurrence() []int {
	counts := make([]int, g.N)
	for _, j := range g.Indices {
		counts[j]++
	}
	return counts
}

func (g *NeighborGraph) validate() error {
	if g.Rows <= 0 || g.N <= 0 || g.K <= 0 {
		return fmt.Errorf("hubness: malformed neighbor graph (rows=%d, n=%d, k=%d)", g.Rows, g.N, g.K)
	}
	if len(g.Indices) != g.Rows*g.K || len(g.Dists) != g.Rows*g.K {
		return fmt.Errorf("hubness: neighbor graph arrays have length %d, want %d", len(g.Indices), g.Rows*g.K)
	}
	for _, j := range g.Indices {
		if j < 0 || j >= g.N {
			return fmt.Errorf("hubness: neighbor index %d out of range [0, %d)", j, g.N)
		}
	}
	return nil
}

// kSmallest selects the k smallest entries of row, skipping index exclude
// (pass a negative exclude to keep all entries). Results are in ascending
// distance order with ties broken by lower index.
func kSmallest(row []float64, k, exclude int) ([]int, []float64) {
	idx := make([]int, 0, len(row))
	for j := range row {
		if j != exclude {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if row[idx[a]] != row[idx[b]] {
			return row[idx[a]] < row[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if k > len(idx) {
		k = len(idx)
	}
	ind := make([]int, k)
	dist := make([]float64, k)
	for i := 0; i < k; i++ {
		ind[i] = idx[i]
		dist[i] = row[idx[i]]
	}
	return ind, dist
}

// graphFromDistances selects the k nearest columns per row of a flat
// rows×n distance block. selfQuery excludes the diagonal (row i may not pick
// column i).
func graphFromDistances(dist []float64, rows, n, k int, selfQuery bool) *NeighborGraph {
	g := &NeighborGraph{
		Rows:    rows,
		N:       n,
		K:       k,
		Indices: make([]int, rows*k),
		Dists:   make([]float64, rows*k),
	}
	for q := 0; q < rows; q++ {
		exclude := -1
		if selfQuery {
			exclude = q
		}
		ind, d := kSmallest(dist[q*n:(q+1)*n], k, exclude)
		copy(g.Indices[q*k:], ind)
		copy(g.Dists[q*k:], d)
	}
	return g
}
