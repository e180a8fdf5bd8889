package hubness

import (
	"testing"
)

func TestKSmallest(t *testing.T) {
	tests := []struct {
		name     string
		row      []float64
		k        int
		exclude  int
		wantInd  []int
		wantDist []float64
	}{
		{
			name:     "basic ascending selection",
			row:      []float64{3, 1, 2, 5, 4},
			k:        3,
			exclude:  -1,
			wantInd:  []int{1, 2, 0},
			wantDist: []float64{1, 2, 3},
		},
		{
			name:     "ties broken by lower index",
			row:      []float64{2, 1, 1, 1, 3},
			k:        3,
			exclude:  -1,
			wantInd:  []int{1, 2, 3},
			wantDist: []float64{1, 1, 1},
		},
		{
			name:     "exclusion removes the diagonal entry",
			row:      []float64{0, 1, 2, 3},
			k:        2,
			exclude:  0,
			wantInd:  []int{1, 2},
			wantDist: []float64{1, 2},
		},
		{
			name:     "k larger than available entries",
			row:      []float64{5, 0, 7},
			k:        10,
			exclude:  1,
			wantInd:  []int{0, 2},
			wantDist: []float64{5, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind, dist := kSmallest(tt.row, tt.k, tt.exclude)
			if len(ind) != len(tt.wantInd) {
				t.Fatalf("got %d results, want %d", len(ind), len(tt.wantInd))
			}
			for i := range ind {
				if ind[i] != tt.wantInd[i] {
					t.Errorf("index %d: got %d, want %d", i, ind[i], tt.wantInd[i])
				}
				if dist[i] != tt.wantDist[i] {
					t.Errorf("dist %d: got %v, want %v", i, dist[i], tt.wantDist[i])
				}
			}
		})
	}
}

func TestNeighborGraph_KOccurrence(t *testing.T) {
	// 3 rows, 4 training points, k=2.
	g := &NeighborGraph{
		Rows:    3,
		N:       4,
		K:       2,
		Indices: []int{1, 2, 1, 3, 1, 0},
		Dists:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	}

	counts := g.KOccurrence()
	want := []int{1, 3, 1, 1}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("KOccurrence[%d] = %d, want %d", i, counts[i], want[i])
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != g.Rows*g.K {
		t.Errorf("occurrence sum = %d, want Rows*K = %d", total, g.Rows*g.K)
	}
}

func TestNeighborGraph_RowAndIndptr(t *testing.T) {
	g := &NeighborGraph{
		Rows:    2,
		N:       3,
		K:       2,
		Indices: []int{0, 2, 1, 0},
		Dists:   []float64{1, 2, 3, 4},
	}

	ind, dist := g.Row(1)
	if ind[0] != 1 || ind[1] != 0 {
		t.Errorf("Row(1) indices = %v, want [1 0]", ind)
	}
	if dist[0] != 3 || dist[1] != 4 {
		t.Errorf("Row(1) dists = %v, want [3 4]", dist)
	}

	ptr := g.Indptr()
	want := []int{0, 2, 4}
	for i := range want {
		if ptr[i] != want[i] {
			t.Errorf("Indptr[%d] = %d, want %d", i, ptr[i], want[i])
		}
	}
}

func TestGraphFromDistances_SelfQueryExcludesDiagonal(t *testing.T) {
	// 3x3 distance matrix with zero diagonal.
	dist := []float64{
		0, 1, 2,
		1, 0, 3,
		2, 3, 0,
	}

	g := graphFromDistances(dist, 3, 3, 2, true)
	for q := 0; q < 3; q++ {
		ind, _ := g.Row(q)
		for _, j := range ind {
			if j == q {
				t.Errorf("row %d contains a self edge", q)
			}
		}
	}

	ind, d := g.Row(0)
	if ind[0] != 1 || ind[1] != 2 {
		t.Errorf("Row(0) indices = %v, want [1 2]", ind)
	}
	if d[0] != 1 || d[1] != 2 {
		t.Errorf("Row(0) dists = %v, want [1 2]", d)
	}
}

func TestGraphFromDistances_ExternalQueryKeepsAllColumns(t *testing.T) {
	// 1 query row against 3 training points; no diagonal to exclude.
	dist := []float64{2, 0, 1}

	g := graphFromDistances(dist, 1, 3, 2, false)
	ind, d := g.Row(0)
	if ind[0] != 1 || ind[1] != 2 {
		t.Errorf("indices = %v, want [1 2]", ind)
	}
	if d[0] != 0 || d[1] != 1 {
		t.Errorf("dists = %v, want [0 1]", d)
	}
}
