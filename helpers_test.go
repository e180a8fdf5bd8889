package hubness

import (
	"math"
	"math/rand"
)

// randomData generates a deterministic n×dims matrix of standard Gaussians.
// High-dimensional iid Gaussian data reliably exhibits hubness, which several
// tests depend on.
func randomData(n, dims int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	for i := range X {
		row := make([]float64, dims)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		X[i] = row
	}
	return X
}

// twoBlobs generates two well-separated Gaussian clusters with labels 0 and 1.
func twoBlobs(perCluster, dims int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, 2*perCluster)
	y := make([]int, 0, 2*perCluster)
	for c := 0; c < 2; c++ {
		center := float64(c) * 10
		for i := 0; i < perCluster; i++ {
			row := make([]float64, dims)
			for j := range row {
				row[j] = center + 0.5*rng.NormFloat64()
			}
			X = append(X, row)
			y = append(y, c)
		}
	}
	return X, y
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
