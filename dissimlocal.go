package hubness

import "fmt"

// DisSimLocal corrects squared Euclidean distances by each endpoint's local
// density: d²(x,y) - d²(x,c_x) - d²(y,c_y), where c_p is the centroid of p's
// k nearest neighbors. Points in dense regions (hubs) have small centroid
// distances, so their raw proximity advantage is removed. Negative corrected
// values are clamped to zero.
//
// The correction is only defined for the squared Euclidean geometry; callers
// must feed squared Euclidean distance blocks.
type DisSimLocal struct {
	k int

	n        int
	dims     int
	trainX   []float64
	centDist []float64 // d²(x_i, c_i) per training point
}

// NewDisSimLocal returns a DisSimLocal reduction with neighborhood size k.
func NewDisSimLocal(k int) (*DisSimLocal, error) {
	if k < 1 {
		return nil, fmt.Errorf("hubness: dis_sim_local neighborhood size must be >= 1, got %d", k)
	}
	return &DisSimLocal{k: k}, nil
}

func (ds *DisSimLocal) Fit(trainDist []float64, n int, trainX []float64, dims int) error {
	if n <= 1 || len(trainDist) != n*n {
		return fmt.Errorf("hubness: dis_sim_local needs a square training distance matrix, got len=%d for n=%d", len(trainDist), n)
	}
	if trainX == nil || len(trainX) != n*dims {
		return fmt.Errorf("hubness: dis_sim_local needs the raw feature matrix")
	}
	if ds.k >= n {
		return fmt.Errorf("hubness: dis_sim_local neighborhood size %d must be < n=%d", ds.k, n)
	}
	ds.n = n
	ds.dims = dims
	ds.trainX = trainX
	ds.centDist = make([]float64, n)
	for i := 0; i < n; i++ {
		ds.centDist[i] = ds.centroidDist(trainDist[i*n:(i+1)*n], trainX[i*dims:(i+1)*dims], i)
	}
	return nil
}

func (ds *DisSimLocal) Transform(dist []float64, rows int, queryX []float64, selfQuery bool) ([]float64, error) {
	n := ds.n
	if n == 0 {
		return nil, ErrNotFitted
	}
	if len(dist) != rows*n {
		return nil, fmt.Errorf("hubness: distance block has len %d, want %d", len(dist), rows*n)
	}
	if queryX == nil || len(queryX) != rows*ds.dims {
		return nil, fmt.Errorf("hubness: dis_sim_local needs the query feature matrix")
	}

	out := make([]float64, len(dist))
	for q := 0; q < rows; q++ {
		row := dist[q*n : (q+1)*n]
		outRow := out[q*n : (q+1)*n]
		exclude := -1
		if selfQuery {
			exclude = q
		}
		cq := ds.centroidDist(row, queryX[q*ds.dims:(q+1)*ds.dims], exclude)
		for j := 0; j < n; j++ {
			v := row[j] - cq - ds.centDist[j]
			if v < 0 {
				v = 0
			}
			outRow[j] = v
		}
	}
	return out, nil
}

// centroidDist finds the point's k nearest training neighbors from its
// distance row, builds their centroid, and returns the squared Euclidean
// distance from the point to that centroid.
func (ds *DisSimLocal) centroidDist(row []float64, x []float64, exclude int) float64 {
	ind, _ := kSmallest(row, ds.k, exclude)
	centroid := make([]float64, ds.dims)
	for _, j := range ind {
		pt := ds.trainX[j*ds.dims : (j+1)*ds.dims]
		for d := range centroid {
			centroid[d] += pt[d]
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(ind))
	}
	return euclideanSumOfSquares(x, centroid)
}
