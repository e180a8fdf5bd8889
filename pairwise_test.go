package hubness

import "testing"

func TestPairwiseDistancesParallel_BitwiseIdentical(t *testing.T) {
	data := []float64{
		0, 0,
		3, 0,
		0, 4,
		1, 1,
		5, 5,
	}
	n, dims := 5, 2
	metric := EuclideanMetric{}

	sequential := PairwiseDistances(data, n, dims, metric)

	for _, workers := range []int{1, 2, 4} {
		parallel := PairwiseDistancesParallel(data, n, dims, metric, workers)

		if len(parallel) != len(sequential) {
			t.Fatalf("workers=%d: length mismatch %d != %d", workers, len(parallel), len(sequential))
		}

		for i := range sequential {
			if parallel[i] != sequential[i] {
				t.Errorf("workers=%d: result[%d] = %v, expected %v (bitwise)",
					workers, i, parallel[i], sequential[i])
			}
		}
	}
}

func TestPairwiseDistances_SymmetricZeroDiagonal(t *testing.T) {
	X := randomData(12, 3, 7)
	data, n, dims, err := flattenRows(X)
	if err != nil {
		t.Fatal(err)
	}
	dist := PairwiseDistances(data, n, dims, ManhattanMetric{})

	for i := 0; i < n; i++ {
		if dist[i*n+i] != 0 {
			t.Errorf("diagonal[%d] = %v, want 0", i, dist[i*n+i])
		}
		for j := 0; j < n; j++ {
			if dist[i*n+j] != dist[j*n+i] {
				t.Errorf("asymmetry at (%d,%d): %v != %v", i, j, dist[i*n+j], dist[j*n+i])
			}
		}
	}
}

func TestCrossDistancesParallel_MatchesSequential(t *testing.T) {
	train := randomData(9, 4, 1)
	query := randomData(5, 4, 2)
	trainFlat, n, dims, _ := flattenRows(train)
	queryFlat, qn, _, _ := flattenRows(query)
	metric := EuclideanMetric{}

	sequential := CrossDistances(queryFlat, qn, trainFlat, n, dims, metric)
	for _, workers := range []int{1, 2, 3, 8} {
		parallel := CrossDistancesParallel(queryFlat, qn, trainFlat, n, dims, metric, workers)
		for i := range sequential {
			if parallel[i] != sequential[i] {
				t.Errorf("workers=%d: result[%d] = %v, expected %v", workers, i, parallel[i], sequential[i])
			}
		}
	}
}

func TestCrossDistances_AgreesWithPairwise(t *testing.T) {
	X := randomData(8, 3, 3)
	data, n, dims, _ := flattenRows(X)
	metric := EuclideanMetric{}

	square := PairwiseDistances(data, n, dims, metric)
	cross := CrossDistances(data, n, data, n, dims, metric)

	for i := range square {
		if !almostEqual(square[i], cross[i], floatTol) {
			t.Fatalf("entry %d: pairwise %v != cross %v", i, square[i], cross[i])
		}
	}
}
