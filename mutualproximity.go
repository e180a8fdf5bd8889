package hubness

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mutual-proximity variants. "empiric" counts the joint tail over the actual
// training distances; "normal" models each point's distance distribution as
// an independent Gaussian and multiplies the survival functions.
const (
	MPMethodEmpiric = "empiric"
	MPMethodNormal  = "normal"
)

// MutualProximity rescales a distance d(i,j) by how unusual it is from both
// endpoints' perspectives: a query may sit close to a hub in raw distance, but
// if the hub is that close to everything, the joint probability of observing a
// larger distance from both sides is small and the rescaled distance grows.
// Output distances lie in [0, 1]; smaller means mutually closer.
type MutualProximity struct {
	method string

	n         int
	trainDist []float64 // empiric: full n×n training matrix
	mu, sigma []float64 // normal: per-train-point Gaussian fit
}

// NewMutualProximity returns a MutualProximity reduction using the given
// method ("empiric" or "normal"). Unknown methods fail immediately.
func NewMutualProximity(method string) (*MutualProximity, error) {
	if method == "" {
		method = MPMethodEmpiric
	}
	switch method {
	case MPMethodEmpiric, MPMethodNormal:
		return &MutualProximity{method: method}, nil
	default:
		return nil, fmt.Errorf("hubness: unknown mutual proximity method %q", method)
	}
}

func (mp *MutualProximity) Fit(trainDist []float64, n int, trainX []float64, dims int) error {
	if n <= 1 || len(trainDist) != n*n {
		return fmt.Errorf("hubness: mutual proximity needs a square training distance matrix, got len=%d for n=%d", len(trainDist), n)
	}
	mp.n = n

	switch mp.method {
	case MPMethodEmpiric:
		mp.trainDist = trainDist
	case MPMethodNormal:
		mp.mu = make([]float64, n)
		mp.sigma = make([]float64, n)
		for i := 0; i < n; i++ {
			row := trainDist[i*n : (i+1)*n]
			mp.mu[i] = stat.Mean(row, nil)
			mp.sigma[i] = stat.StdDev(row, nil)
		}
	}
	return nil
}

func (mp *MutualProximity) Transform(dist []float64, rows int, queryX []float64, selfQuery bool) ([]float64, error) {
	n := mp.n
	if n == 0 {
		return nil, ErrNotFitted
	}
	if len(dist) != rows*n {
		return nil, fmt.Errorf("hubness: distance block has len %d, want %d", len(dist), rows*n)
	}

	out := make([]float64, len(dist))
	switch mp.method {
	case MPMethodEmpiric:
		mp.transformEmpiric(dist, rows, out)
	case MPMethodNormal:
		mp.transformNormal(dist, rows, out)
	}
	return out, nil
}

// transformEmpiric sets out(q,j) = 1 - |{z : d(q,z) > d(q,j) ∧ d(j,z) > d(q,j)}| / n.
// Self-distances are zero and never exceed d(q,j), so z = q and z = j drop out
// of the count without special casing.
func (mp *MutualProximity) transformEmpiric(dist []float64, rows int, out []float64) {
	n := mp.n
	for q := 0; q < rows; q++ {
		qRow := dist[q*n : (q+1)*n]
		outRow := out[q*n : (q+1)*n]
		for j := 0; j < n; j++ {
			d := qRow[j]
			jRow := mp.trainDist[j*n : (j+1)*n]
			count := 0
			for z := 0; z < n; z++ {
				if qRow[z] > d && jRow[z] > d {
					count++
				}
			}
			outRow[j] = 1.0 - float64(count)/float64(n)
		}
	}
}

// transformNormal sets out(q,j) = 1 - SF_q(d)·SF_j(d) with per-point Gaussian
// fits; SF is the Gaussian survival function.
func (mp *MutualProximity) transformNormal(dist []float64, rows int, out []float64) {
	n := mp.n
	for q := 0; q < rows; q++ {
		qRow := dist[q*n : (q+1)*n]
		outRow := out[q*n : (q+1)*n]
		muQ := stat.Mean(qRow, nil)
		sigmaQ := stat.StdDev(qRow, nil)
		for j := 0; j < n; j++ {
			d := qRow[j]
			outRow[j] = 1.0 - gaussSF(d, muQ, sigmaQ)*gaussSF(d, mp.mu[j], mp.sigma[j])
		}
	}
}

// gaussSF is the Gaussian survival function P(X > d). A degenerate sigma
// collapses to a step at mu.
func gaussSF(d, mu, sigma float64) float64 {
	if sigma <= 0 || math.IsNaN(sigma) {
		if d > mu {
			return 0
		}
		return 1
	}
	return 0.5 * math.Erfc((d-mu)/(sigma*math.Sqrt2))
}
