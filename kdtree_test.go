package hubness

import (
	"testing"
)

func TestKDTree_Construction_BasicProperties(t *testing.T) {
	// 6 points in 2D
	data := []float64{
		0, 0,
		1, 0,
		2, 0,
		0, 3,
		1, 3,
		2, 3,
	}
	n, dims := 6, 2
	tree := NewKDTree(data, n, dims, EuclideanMetric{}, 2)

	if tree.NumPoints() != n {
		t.Errorf("NumPoints() = %d, want %d", tree.NumPoints(), n)
	}
	if tree.NumFeatures() != dims {
		t.Errorf("NumFeatures() = %d, want %d", tree.NumFeatures(), dims)
	}

	// idxArray should be a permutation of 0..n-1.
	seen := make(map[int]bool)
	for _, v := range tree.idxArray {
		if v < 0 || v >= n {
			t.Errorf("idxArray contains out-of-range index %d", v)
		}
		if seen[v] {
			t.Errorf("idxArray contains duplicate index %d", v)
		}
		seen[v] = true
	}
}

func TestKDTree_QueryKNN_SimpleGrid(t *testing.T) {
	data := []float64{
		0, 0,
		1, 0,
		10, 0,
		11, 0,
	}
	tree := NewKDTree(data, 4, 2, EuclideanMetric{}, 1)

	indices, distances := tree.QueryKNN([]float64{0.1, 0}, 1, 2)

	if indices[0][0] != 0 || indices[0][1] != 1 {
		t.Errorf("neighbors = %v, want [0 1]", indices[0])
	}
	if !almostEqual(distances[0][0], 0.1, floatTol) {
		t.Errorf("nearest distance = %v, want 0.1", distances[0][0])
	}
}

// queryMatchesBrute verifies a backend's QueryKNN against brute-force
// selection on the same data.
func queryMatchesBrute(t *testing.T, query func([]float64, int, int) ([][]int, [][]float64), data []float64, n, dims, k int, metric DistanceMetric) {
	t.Helper()

	indices, distances := query(data, n, k)
	cross := CrossDistances(data, n, data, n, dims, metric)

	for q := 0; q < n; q++ {
		wantInd, wantDist := kSmallest(cross[q*n:(q+1)*n], k, -1)
		if len(indices[q]) != k {
			t.Fatalf("query %d: got %d neighbors, want %d", q, len(indices[q]), k)
		}
		for i := 0; i < k; i++ {
			if indices[q][i] != wantInd[i] {
				t.Errorf("query %d neighbor %d: got index %d, want %d", q, i, indices[q][i], wantInd[i])
			}
			if !almostEqual(distances[q][i], wantDist[i], floatTol) {
				t.Errorf("query %d neighbor %d: got dist %v, want %v", q, i, distances[q][i], wantDist[i])
			}
		}
	}
}

func TestKDTree_QueryKNN_MatchesBrute(t *testing.T) {
	metrics := map[string]DistanceMetric{
		"euclidean": EuclideanMetric{},
		"manhattan": ManhattanMetric{},
		"chebyshev": ChebyshevMetric{},
		"minkowski": MinkowskiMetric{P: 3},
	}
	X := randomData(40, 3, 11)
	data, n, dims, _ := flattenRows(X)

	for name, metric := range metrics {
		t.Run(name, func(t *testing.T) {
			tree := NewKDTree(data, n, dims, metric, 4)
			queryMatchesBrute(t, tree.QueryKNN, data, n, dims, 5, metric)
		})
	}
}

func TestKDTree_QueryKNN_LeafSizeInvariant(t *testing.T) {
	X := randomData(30, 2, 5)
	data, n, dims, _ := flattenRows(X)
	metric := EuclideanMetric{}

	for _, leafSize := range []int{1, 3, 10, 40} {
		tree := NewKDTree(data, n, dims, metric, leafSize)
		queryMatchesBrute(t, tree.QueryKNN, data, n, dims, 4, metric)
	}
}
