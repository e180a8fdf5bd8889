package hubness

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// Algorithm selects the nearest-neighbor search backend.
type Algorithm string

const (
	AlgorithmAuto     Algorithm = "auto"
	AlgorithmBrute    Algorithm = "brute"
	AlgorithmKDTree   Algorithm = "kd_tree"
	AlgorithmBallTree Algorithm = "ball_tree"
	AlgorithmLSH      Algorithm = "lsh"
)

// KDTreeValidMetric reports whether the metric supports KD-tree acceleration.
// KD-trees require metrics that decompose along coordinate axes:
// Euclidean, Manhattan, Chebyshev, Minkowski.
func KDTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// BallTreeValidMetric reports whether the metric supports Ball tree
// acceleration: any metric satisfying the triangle inequality.
func BallTreeValidMetric(m DistanceMetric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric, MinkowskiMetric:
		return true
	default:
		return false
	}
}

// NeighborsConfig controls NearestNeighbors behavior.
// Start with [DefaultNeighborsConfig] and override the fields you need.
type NeighborsConfig struct {
	// NNeighbors is the number of neighbors returned per query point.
	// Must be >= 1 and less than the training-set size at query time.
	// Default: 5.
	NNeighbors int

	// Algorithm selects the search backend. "auto" resolves to a KD-tree
	// for axis-decomposable metrics at moderate dimensionality, a Ball
	// tree for other tree-safe metrics, and brute force otherwise. Any
	// hubness reduction forces brute force, since reductions need every
	// query-to-train distance. Default: "auto".
	Algorithm Algorithm

	// LeafSize is the max points per tree leaf. Default: 30.
	LeafSize int

	// Metric names the distance function: "euclidean", "sqeuclidean",
	// "manhattan", "chebyshev", "minkowski", "cosine", or "precomputed"
	// (inputs are already distance matrices). Default: "euclidean".
	Metric string

	// P is the Minkowski power; ignored by other metrics. Default: 2.
	P float64

	// Hubness names the optional distance rescaling applied before
	// neighbor selection: "mutual_proximity"/"mp", "local_scaling"/"ls",
	// "nicdm", "dis_sim_local"/"dsl". Empty means vanilla kNN.
	Hubness string

	// MPMethod selects the mutual-proximity variant ("empiric" or
	// "normal"); ignored by other reductions. Default: "empiric".
	MPMethod string

	// HubnessK is the neighborhood size used by the scaling reductions.
	// 0 defaults to NNeighbors.
	HubnessK int

	// LSHTables and LSHBits size the LSH backend; Seed makes it
	// deterministic. Zero values pick defaults.
	LSHTables int
	LSHBits   int
	Seed      int64

	// NumWorkers controls parallel distance computation; <= 1 runs
	// sequentially. Default: GOMAXPROCS.
	NumWorkers int

	// Logger receives debug-level progress. Nil disables logging.
	Logger *zap.Logger
}

// DefaultNeighborsConfig returns the default configuration.
func DefaultNeighborsConfig() NeighborsConfig {
	return NeighborsConfig{
		NNeighbors: 5,
		Algorithm:  AlgorithmAuto,
		LeafSize:   30,
		Metric:     MetricEuclidean,
		P:          2,
		MPMethod:   MPMethodEmpiric,
		NumWorkers: runtime.GOMAXPROCS(0),
	}
}

// NearestNeighbors finds the k nearest training points of query points,
// optionally rescaling distances with a hubness reduction before selection.
type NearestNeighbors struct {
	cfg       NeighborsConfig
	metric    DistanceMetric // nil for precomputed inputs
	reduction HubnessReduction
	noReduce  bool
	logger    *zap.Logger

	fitted    bool
	algorithm Algorithm // resolved backend
	trainX    []float64
	n, dims   int
	trainDist []float64 // n×n primary distances; set on the brute path
	kd        *KDTree
	ball      *BallTree
	lsh       *lshIndex
}

// NewNearestNeighbors validates the configuration and returns an unfitted
// NearestNeighbors. Unknown metric, algorithm, or hubness names fail here,
// not at query time.
func NewNearestNeighbors(cfg NeighborsConfig) (*NearestNeighbors, error) {
	if cfg.NNeighbors < 1 {
		return nil, fmt.Errorf("hubness: n_neighbors must be >= 1, got %d", cfg.NNeighbors)
	}
	if cfg.LeafSize < 1 {
		cfg.LeafSize = 30
	}
	if cfg.P == 0 {
		cfg.P = 2
	}

	var metric DistanceMetric
	if cfg.Metric != MetricPrecomputed {
		var err error
		metric, err = MetricByName(cfg.Metric, cfg.P)
		if err != nil {
			return nil, err
		}
	}

	hubnessK := cfg.HubnessK
	if hubnessK == 0 {
		hubnessK = cfg.NNeighbors
	}
	reduction, err := ReductionByName(cfg.Hubness, cfg.MPMethod, hubnessK)
	if err != nil {
		return nil, err
	}
	_, noReduce := reduction.(NoReduction)

	switch cfg.Algorithm {
	case AlgorithmAuto, AlgorithmBrute:
	case AlgorithmKDTree:
		if !noReduce {
			return nil, fmt.Errorf("hubness: hubness reduction %q requires the brute backend, not %q", cfg.Hubness, cfg.Algorithm)
		}
		if metric != nil && !KDTreeValidMetric(metric) {
			return nil, fmt.Errorf("hubness: metric %q is not supported by the KD-tree backend", cfg.Metric)
		}
	case AlgorithmBallTree:
		if !noReduce {
			return nil, fmt.Errorf("hubness: hubness reduction %q requires the brute backend, not %q", cfg.Hubness, cfg.Algorithm)
		}
		if metric != nil && !BallTreeValidMetric(metric) {
			return nil, fmt.Errorf("hubness: metric %q is not supported by the Ball tree backend", cfg.Metric)
		}
	case AlgorithmLSH:
		if !noReduce {
			return nil, fmt.Errorf("hubness: hubness reduction %q requires the brute backend, not %q", cfg.Hubness, cfg.Algorithm)
		}
	default:
		return nil, fmt.Errorf("hubness: unknown algorithm %q", cfg.Algorithm)
	}

	if cfg.Metric == MetricPrecomputed && cfg.Algorithm != AlgorithmAuto && cfg.Algorithm != AlgorithmBrute {
		return nil, fmt.Errorf("hubness: precomputed distances are incompatible with algorithm %q", cfg.Algorithm)
	}

	// DisSimLocal is defined on the squared Euclidean geometry.
	if _, isDSL := reduction.(*DisSimLocal); isDSL {
		switch cfg.Metric {
		case MetricEuclidean, MetricSqEuclidean:
		default:
			return nil, fmt.Errorf("hubness: dis_sim_local requires a (squared) euclidean metric, got %q", cfg.Metric)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NearestNeighbors{
		cfg:       cfg,
		metric:    metric,
		reduction: reduction,
		noReduce:  noReduce,
		logger:    logger,
	}, nil
}

// Fit indexes the training data. For metric "precomputed", X must be the
// square n×n training distance matrix.
func (nn *NearestNeighbors) Fit(X [][]float64) error {
	data, n, dims, err := flattenRows(X)
	if err != nil {
		return err
	}

	nn.fitted = false
	nn.trainDist = nil
	nn.kd, nn.ball, nn.lsh = nil, nil, nil

	if nn.cfg.Metric == MetricPrecomputed {
		if n != dims {
			return fmt.Errorf("hubness: precomputed distance matrix must be square, got %dx%d", n, dims)
		}
		nn.algorithm = AlgorithmBrute
		nn.trainDist = data
	} else {
		nn.algorithm = nn.resolveAlgorithm(dims)
	}

	nn.trainX = data
	nn.n = n
	nn.dims = dims

	nn.logger.Debug("fitting nearest neighbors",
		zap.Int("n_samples", n),
		zap.Int("n_features", dims),
		zap.String("algorithm", string(nn.algorithm)))

	switch nn.algorithm {
	case AlgorithmBrute:
		if nn.trainDist == nil {
			primary := nn.primaryMetric()
			nn.trainDist = PairwiseDistancesParallel(data, n, dims, primary, nn.cfg.NumWorkers)
		}
		if err := nn.reduction.Fit(nn.trainDist, n, data, dims); err != nil {
			return err
		}
	case AlgorithmKDTree:
		nn.kd = NewKDTree(data, n, dims, nn.metric, nn.cfg.LeafSize)
	case AlgorithmBallTree:
		nn.ball = NewBallTree(data, n, dims, nn.metric, nn.cfg.LeafSize)
	case AlgorithmLSH:
		nn.lsh = newLSHIndex(data, n, dims, nn.metric, nn.cfg.LSHTables, nn.cfg.LSHBits, nn.cfg.Seed)
	}

	nn.fitted = true
	return nil
}

// resolveAlgorithm turns AlgorithmAuto into a concrete backend.
func (nn *NearestNeighbors) resolveAlgorithm(dims int) Algorithm {
	algo := nn.cfg.Algorithm
	if algo != AlgorithmAuto {
		return algo
	}
	if !nn.noReduce {
		return AlgorithmBrute
	}
	if KDTreeValidMetric(nn.metric) && dims <= 60 {
		return AlgorithmKDTree
	}
	if BallTreeValidMetric(nn.metric) {
		return AlgorithmBallTree
	}
	return AlgorithmBrute
}

// primaryMetric returns the metric used for the raw distance block feeding a
// reduction: DisSimLocal consumes squared Euclidean distances even when the
// configured metric is plain Euclidean.
func (nn *NearestNeighbors) primaryMetric() DistanceMetric {
	if _, isDSL := nn.reduction.(*DisSimLocal); isDSL {
		return SqEuclideanMetric{}
	}
	return nn.metric
}

// NumSamples returns the training-set size. Zero before Fit.
func (nn *NearestNeighbors) NumSamples() int { return nn.n }

// EffectiveAlgorithm returns the backend resolved at Fit time.
func (nn *NearestNeighbors) EffectiveAlgorithm() Algorithm { return nn.algorithm }

// Kneighbors returns the NNeighbors nearest training points for each query
// row, nearest first. Q == nil queries the training set itself with the
// querying point excluded from its own neighbor list. For metric
// "precomputed", each row of Q must hold distances to all training points.
func (nn *NearestNeighbors) Kneighbors(Q [][]float64) ([][]float64, [][]int, error) {
	g, err := nn.KneighborsGraph(Q)
	if err != nil {
		return nil, nil, err
	}
	dists := make([][]float64, g.Rows)
	indices := make([][]int, g.Rows)
	for q := 0; q < g.Rows; q++ {
		ind, d := g.Row(q)
		indices[q] = ind
		dists[q] = d
	}
	return dists, indices, nil
}

// KneighborsGraph returns the directed k-nearest-neighbor graph of the query
// rows over the training set. Same query semantics as Kneighbors.
func (nn *NearestNeighbors) KneighborsGraph(Q [][]float64) (*NeighborGraph, error) {
	if !nn.fitted {
		return nil, fmt.Errorf("%w: call Fit before querying neighbors", ErrNotFitted)
	}

	k := nn.cfg.NNeighbors
	selfQuery := Q == nil

	maxK := nn.n
	if selfQuery {
		maxK = nn.n - 1
	}
	if k > maxK {
		return nil, fmt.Errorf("hubness: n_neighbors=%d must be <= %d for n_samples=%d", k, maxK, nn.n)
	}

	if nn.algorithm == AlgorithmBrute {
		return nn.bruteGraph(Q, k, selfQuery)
	}
	return nn.indexGraph(Q, k, selfQuery)
}

// bruteGraph runs the dense path: primary distance block, optional hubness
// reduction, then per-row selection.
func (nn *NearestNeighbors) bruteGraph(Q [][]float64, k int, selfQuery bool) (*NeighborGraph, error) {
	var dist, queryX []float64
	var rows int

	if selfQuery {
		dist = nn.trainDist
		queryX = nn.trainX
		rows = nn.n
	} else {
		q, qn, qd, err := flattenRows(Q)
		if err != nil {
			return nil, err
		}
		if nn.cfg.Metric == MetricPrecomputed {
			if qd != nn.n {
				return nil, fmt.Errorf("hubness: precomputed query rows must have %d distances, got %d", nn.n, qd)
			}
			dist = q
		} else {
			if qd != nn.dims {
				return nil, fmt.Errorf("hubness: query has %d features, train has %d", qd, nn.dims)
			}
			dist = CrossDistancesParallel(q, qn, nn.trainX, nn.n, nn.dims, nn.primaryMetric(), nn.cfg.NumWorkers)
			queryX = q
		}
		rows = qn
	}

	reduced, err := nn.reduction.Transform(dist, rows, queryX, selfQuery)
	if err != nil {
		return nil, err
	}

	if !nn.noReduce {
		nn.logger.Debug("applied hubness reduction",
			zap.String("hubness", nn.cfg.Hubness),
			zap.Int("rows", rows))
	}

	return graphFromDistances(reduced, rows, nn.n, k, selfQuery), nil
}

// indexGraph runs tree and LSH backends. Self queries fetch one extra
// neighbor and drop the querying point from its own list.
func (nn *NearestNeighbors) indexGraph(Q [][]float64, k int, selfQuery bool) (*NeighborGraph, error) {
	var query []float64
	var rows int
	if selfQuery {
		query = nn.trainX
		rows = nn.n
	} else {
		q, qn, qd, err := flattenRows(Q)
		if err != nil {
			return nil, err
		}
		if qd != nn.dims {
			return nil, fmt.Errorf("hubness: query has %d features, train has %d", qd, nn.dims)
		}
		query = q
		rows = qn
	}

	fetch := k
	if selfQuery {
		fetch = k + 1
	}

	var indices [][]int
	var dists [][]float64
	switch nn.algorithm {
	case AlgorithmKDTree:
		indices, dists = nn.kd.QueryKNN(query, rows, fetch)
	case AlgorithmBallTree:
		indices, dists = nn.ball.QueryKNN(query, rows, fetch)
	case AlgorithmLSH:
		indices, dists = nn.lsh.QueryKNN(query, rows, fetch)
	default:
		return nil, fmt.Errorf("hubness: backend %q has no index", nn.algorithm)
	}

	g := &NeighborGraph{
		Rows:    rows,
		N:       nn.n,
		K:       k,
		Indices: make([]int, rows*k),
		Dists:   make([]float64, rows*k),
	}
	for q := 0; q < rows; q++ {
		ind, d := indices[q], dists[q]
		if selfQuery {
			ind, d = dropSelf(ind, d, q)
		}
		if len(ind) < k {
			return nil, fmt.Errorf("hubness: backend %q returned %d neighbors, want %d", nn.algorithm, len(ind), k)
		}
		copy(g.Indices[q*k:(q+1)*k], ind[:k])
		copy(g.Dists[q*k:(q+1)*k], d[:k])
	}
	return g, nil
}

// dropSelf removes index self from a neighbor list; if absent (possible with
// duplicate points), the farthest entry is dropped instead.
func dropSelf(ind []int, dist []float64, self int) ([]int, []float64) {
	for i, j := range ind {
		if j == self {
			outI := make([]int, 0, len(ind)-1)
			outD := make([]float64, 0, len(dist)-1)
			outI = append(outI, ind[:i]...)
			outI = append(outI, ind[i+1:]...)
			outD = append(outD, dist[:i]...)
			outD = append(outD, dist[i+1:]...)
			return outI, outD
		}
	}
	return ind[:len(ind)-1], dist[:len(dist)-1]
}

// flattenRows validates a rectangular [][]float64 and flattens it row-major.
func flattenRows(X [][]float64) ([]float64, int, int, error) {
	n := len(X)
	if n == 0 {
		return nil, 0, 0, fmt.Errorf("hubness: empty data")
	}
	dims := len(X[0])
	if dims == 0 {
		return nil, 0, 0, fmt.Errorf("hubness: empty rows")
	}
	flat := make([]float64, 0, n*dims)
	for i, row := range X {
		if len(row) != dims {
			return nil, 0, 0, fmt.Errorf("hubness: row %d has %d features, row 0 has %d", i, len(row), dims)
		}
		flat = append(flat, row...)
	}
	return flat, n, dims, nil
}
