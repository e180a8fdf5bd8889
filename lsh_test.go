package hubness

import (
	"testing"
)

func TestLSHIndex_ReturnsKResults(t *testing.T) {
	X := randomData(50, 8, 3)
	data, n, dims, _ := flattenRows(X)

	idx := newLSHIndex(data, n, dims, EuclideanMetric{}, 8, 12, 42)
	indices, distances := idx.QueryKNN(data, n, 5)

	for q := 0; q < n; q++ {
		if len(indices[q]) != 5 || len(distances[q]) != 5 {
			t.Fatalf("query %d: got %d/%d results, want 5", q, len(indices[q]), len(distances[q]))
		}
		for i := 1; i < 5; i++ {
			if distances[q][i] < distances[q][i-1] {
				t.Errorf("query %d: distances not ascending: %v", q, distances[q])
			}
		}
	}
}

func TestLSHIndex_SeedDeterminism(t *testing.T) {
	X := randomData(60, 10, 7)
	data, n, dims, _ := flattenRows(X)

	a := newLSHIndex(data, n, dims, EuclideanMetric{}, 6, 10, 99)
	b := newLSHIndex(data, n, dims, EuclideanMetric{}, 6, 10, 99)

	ai, ad := a.QueryKNN(data, n, 4)
	bi, bd := b.QueryKNN(data, n, 4)

	for q := 0; q < n; q++ {
		for i := range ai[q] {
			if ai[q][i] != bi[q][i] {
				t.Fatalf("query %d: indices differ between identical seeds: %v vs %v", q, ai[q], bi[q])
			}
			if ad[q][i] != bd[q][i] {
				t.Fatalf("query %d: distances differ between identical seeds", q)
			}
		}
	}
}

func TestLSHIndex_SelfIsNearestOnTrainQueries(t *testing.T) {
	// A training point always lands in its own exact bucket, so querying the
	// train set must report the point itself at distance zero.
	X, _ := twoBlobs(25, 5, 13)
	data, n, dims, _ := flattenRows(X)

	idx := newLSHIndex(data, n, dims, EuclideanMetric{}, 10, 8, 1)
	indices, distances := idx.QueryKNN(data, n, 3)

	for q := 0; q < n; q++ {
		if indices[q][0] != q {
			t.Errorf("query %d: nearest neighbor = %d, want self", q, indices[q][0])
		}
		if distances[q][0] != 0 {
			t.Errorf("query %d: self distance = %v, want 0", q, distances[q][0])
		}
	}
}

func TestLSHIndex_SmallDataLinearTopUp(t *testing.T) {
	// With more requested neighbors than fit in any bucket, the index tops
	// up from a linear scan and still returns everything.
	data := []float64{0, 0, 1, 1, 2, 2}
	idx := newLSHIndex(data, 3, 2, EuclideanMetric{}, 2, 4, 5)

	indices, _ := idx.QueryKNN([]float64{0, 0}, 1, 3)
	if len(indices[0]) != 3 {
		t.Fatalf("got %d results, want 3", len(indices[0]))
	}
	if indices[0][0] != 0 {
		t.Errorf("nearest = %d, want 0", indices[0][0])
	}
}
