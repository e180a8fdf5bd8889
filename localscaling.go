package hubness

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LocalScaling rescales distances by each endpoint's local neighborhood
// radius, so that a distance counts as "close" only relative to how tight
// each point's own neighborhood is. The standard variant maps d(i,j) to
// 1 - exp(-d²/(r_i·r_j)) with r the distance to the k-th neighbor; the NICDM
// variant divides d by the geometric mean of the two points' average
// k-neighbor distances.
type LocalScaling struct {
	k     int
	nicdm bool

	n     int
	scale []float64 // per-train-point radius (standard) or mean distance (nicdm)
}

// NewLocalScaling returns a LocalScaling reduction with neighborhood size k.
// nicdm selects the NICDM variant.
func NewLocalScaling(k int, nicdm bool) (*LocalScaling, error) {
	if k < 1 {
		return nil, fmt.Errorf("hubness: local scaling neighborhood size must be >= 1, got %d", k)
	}
	return &LocalScaling{k: k, nicdm: nicdm}, nil
}

func (ls *LocalScaling) Fit(trainDist []float64, n int, trainX []float64, dims int) error {
	if n <= 1 || len(trainDist) != n*n {
		return fmt.Errorf("hubness: local scaling needs a square training distance matrix, got len=%d for n=%d", len(trainDist), n)
	}
	if ls.k >= n {
		return fmt.Errorf("hubness: local scaling neighborhood size %d must be < n=%d", ls.k, n)
	}
	ls.n = n
	ls.scale = make([]float64, n)
	for i := 0; i < n; i++ {
		ls.scale[i] = localScale(trainDist[i*n:(i+1)*n], ls.k, i, ls.nicdm)
	}
	return nil
}

func (ls *LocalScaling) Transform(dist []float64, rows int, queryX []float64, selfQuery bool) ([]float64, error) {
	n := ls.n
	if n == 0 {
		return nil, ErrNotFitted
	}
	if len(dist) != rows*n {
		return nil, fmt.Errorf("hubness: distance block has len %d, want %d", len(dist), rows*n)
	}

	out := make([]float64, len(dist))
	for q := 0; q < rows; q++ {
		row := dist[q*n : (q+1)*n]
		outRow := out[q*n : (q+1)*n]
		exclude := -1
		if selfQuery {
			exclude = q
		}
		sq := localScale(row, ls.k, exclude, ls.nicdm)
		for j := 0; j < n; j++ {
			d := row[j]
			if ls.nicdm {
				outRow[j] = d / math.Sqrt(sq*ls.scale[j])
			} else {
				outRow[j] = 1.0 - math.Exp(-d*d/(sq*ls.scale[j]))
			}
		}
	}
	return out, nil
}

// localScale extracts the k-th smallest distance of a row (standard variant)
// or the mean of the k smallest (nicdm), skipping the exclude index. A zero
// scale is bumped to a tiny epsilon to keep the rescaled values finite.
func localScale(row []float64, k, exclude int, nicdm bool) float64 {
	neighbors := make([]float64, 0, len(row))
	for j, d := range row {
		if j != exclude {
			neighbors = append(neighbors, d)
		}
	}
	sort.Float64s(neighbors)
	if k > len(neighbors) {
		k = len(neighbors)
	}

	var s float64
	if nicdm {
		s = stat.Mean(neighbors[:k], nil)
	} else {
		s = neighbors[k-1]
	}
	if s <= 0 {
		s = 1e-12
	}
	return s
}
