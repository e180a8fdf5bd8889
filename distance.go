package hubness

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

// DistanceMetric provides distance computation with optional reduced distance
// for tree-pruning optimizations (e.g., squared Euclidean skips sqrt).
type DistanceMetric interface {
	Distance(a, b []float64) float64
	ReducedDistance(a, b []float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric.
// ReducedDistance delegates to the same function.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64        { return f(a, b) }
func (f DistanceFunc) ReducedDistance(a, b []float64) float64 { return f(a, b) }

// Recognized metric names for config fields. MetricPrecomputed is a sentinel:
// the input is already a distance matrix (or neighbor graph), so no metric is
// ever evaluated.
const (
	MetricEuclidean   = "euclidean"
	MetricSqEuclidean = "sqeuclidean"
	MetricManhattan   = "manhattan"
	MetricChebyshev   = "chebyshev"
	MetricMinkowski   = "minkowski"
	MetricCosine      = "cosine"
	MetricPrecomputed = "precomputed"
)

// MetricByName resolves a metric name into a DistanceMetric. p is the
// Minkowski power and is ignored by every other metric. MetricPrecomputed has
// no metric object and must be handled by the caller before resolving.
func MetricByName(name string, p float64) (DistanceMetric, error) {
	switch name {
	case MetricEuclidean, "l2":
		return EuclideanMetric{}, nil
	case MetricSqEuclidean:
		return SqEuclideanMetric{}, nil
	case MetricManhattan, "l1", "cityblock":
		return ManhattanMetric{}, nil
	case MetricChebyshev:
		return ChebyshevMetric{}, nil
	case MetricMinkowski:
		if p < 1 {
			return nil, fmt.Errorf("hubness: minkowski power must be >= 1, got %g", p)
		}
		return MinkowskiMetric{P: p}, nil
	case MetricCosine:
		return CosineMetric{}, nil
	case MetricPrecomputed:
		return nil, fmt.Errorf("hubness: metric %q is a sentinel, not a computable metric", name)
	default:
		return nil, fmt.Errorf("hubness: unknown metric %q", name)
	}
}

// EuclideanMetric computes the Euclidean (L2) distance.
// ReducedDistance returns squared Euclidean distance (skips sqrt).
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	return math.Sqrt(euclideanSumOfSquares(a, b))
}

func (EuclideanMetric) ReducedDistance(a, b []float64) float64 {
	return euclideanSumOfSquares(a, b)
}

func euclideanSumOfSquares(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// SqEuclideanMetric computes the squared Euclidean distance. DisSimLocal
// hubness reduction is defined on this metric.
type SqEuclideanMetric struct{}

func (SqEuclideanMetric) Distance(a, b []float64) float64 {
	return euclideanSumOfSquares(a, b)
}

func (m SqEuclideanMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func (m ManhattanMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

// CosineMetric computes the cosine distance: 1 - cosine_similarity.
// Inner products are vectorized. For two zero vectors, the result is NaN (0/0).
type CosineMetric struct{}

func (CosineMetric) Distance(a, b []float64) float64 {
	dot := vek.Dot(a, b)
	normA := vek.Dot(a, a)
	normB := vek.Dot(b, b)
	return 1.0 - dot/math.Sqrt(normA*normB)
}

func (m CosineMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (m ChebyshevMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1. Panics if P < 1.
// ReducedDistance returns sum(|a[i]-b[i]|^P) without the final root.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 {
	return math.Pow(m.rawSum(a, b), 1.0/m.P)
}

func (m MinkowskiMetric) ReducedDistance(a, b []float64) float64 {
	return m.rawSum(a, b)
}

func (m MinkowskiMetric) rawSum(a, b []float64) float64 {
	if m.P < 1 {
		panic("MinkowskiMetric: P must be >= 1")
	}
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
	}
	return sum
}
