package hubness

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// HubnessConfig controls hubness estimation.
// Start with [DefaultHubnessConfig] and override the fields you need.
type HubnessConfig struct {
	// K is the neighborhood size over which k-occurrence is counted.
	// Must be >= 1 and less than the sample count at estimation time.
	// Default: 10.
	K int

	// Metric names the distance function (see NeighborsConfig.Metric).
	// "precomputed" means Estimate receives a square distance matrix.
	// Default: "euclidean".
	Metric string

	// P is the Minkowski power; ignored by other metrics. Default: 2.
	P float64

	// Hubness optionally applies a hubness reduction before the neighbor
	// graph is built, so the estimator measures the reduced hubness.
	// Empty means no reduction.
	Hubness string

	// MPMethod selects the mutual-proximity variant. Default: "empiric".
	MPMethod string

	// HubSize is the hub threshold multiplier: points with k-occurrence
	// >= HubSize*K count as hubs. Must be > 0. Default: 2.
	HubSize float64

	// Algorithm, LeafSize, NumWorkers and Logger are passed through to the
	// underlying NearestNeighbors.
	Algorithm  Algorithm
	LeafSize   int
	NumWorkers int
	Seed       int64
	Logger     *zap.Logger
}

// DefaultHubnessConfig returns the default configuration.
func DefaultHubnessConfig() HubnessConfig {
	return HubnessConfig{
		K:          10,
		Metric:     MetricEuclidean,
		P:          2,
		MPMethod:   MPMethodEmpiric,
		HubSize:    2,
		Algorithm:  AlgorithmAuto,
		NumWorkers: runtime.GOMAXPROCS(0),
	}
}

// Result holds the hubness statistics of one estimation. All statistics are
// derived from the k-occurrence distribution of the directed kNN graph.
type Result struct {
	K int

	// Skewness is the third standardized moment of the k-occurrence
	// distribution, the primary hubness indicator. Higher means the
	// neighbor structure is more hub-dominated. Zero when every point
	// occurs equally often.
	Skewness float64

	// RobinHood is the share of k-occurrence mass that would have to be
	// redistributed from points above the mean to points below it for all
	// points to occur equally often. 0 = perfect equality.
	RobinHood float64

	// AntihubOccurrence is the fraction of points that never appear as
	// anyone's neighbor (k-occurrence zero).
	AntihubOccurrence float64

	// HubOccurrence is the fraction of points that are hubs
	// (k-occurrence >= HubSize*K). Hubs and antihubs are disjoint, so
	// HubOccurrence + AntihubOccurrence <= 1.
	HubOccurrence float64

	// GiniIndex is the Gini inequality coefficient of the k-occurrence
	// distribution.
	GiniIndex float64

	// KOccurrence[i] is the number of times training point i was selected
	// as a neighbor.
	KOccurrence []int
}

// Hubness estimates hubness statistics of a dataset. An instance is
// configured once and can estimate repeatedly; each successful estimate
// replaces the previous result.
type Hubness struct {
	cfg    HubnessConfig
	logger *zap.Logger
	result *Result
}

// NewHubness validates the configuration and returns an estimator.
func NewHubness(cfg HubnessConfig) (*Hubness, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("hubness: k must be >= 1, got %d", cfg.K)
	}
	if cfg.HubSize == 0 {
		cfg.HubSize = 2
	}
	if cfg.HubSize <= 0 {
		return nil, fmt.Errorf("hubness: hub_size must be > 0, got %g", cfg.HubSize)
	}
	if cfg.P == 0 {
		cfg.P = 2
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmAuto
	}

	// Resolve names eagerly so bad configs fail at construction.
	if cfg.Metric != MetricPrecomputed {
		if _, err := MetricByName(cfg.Metric, cfg.P); err != nil {
			return nil, err
		}
	}
	if _, err := ReductionByName(cfg.Hubness, cfg.MPMethod, cfg.K); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hubness{cfg: cfg, logger: logger}, nil
}

// Estimate builds the (optionally hubness-reduced) kNN graph of X and
// computes the hubness statistics of its k-occurrence distribution. For
// metric "precomputed", X must be a square distance matrix.
func (h *Hubness) Estimate(X [][]float64) (*Result, error) {
	nn, err := NewNearestNeighbors(NeighborsConfig{
		NNeighbors: h.cfg.K,
		Algorithm:  h.cfg.Algorithm,
		LeafSize:   h.cfg.LeafSize,
		Metric:     h.cfg.Metric,
		P:          h.cfg.P,
		Hubness:    h.cfg.Hubness,
		MPMethod:   h.cfg.MPMethod,
		HubnessK:   h.cfg.K,
		Seed:       h.cfg.Seed,
		NumWorkers: h.cfg.NumWorkers,
		Logger:     h.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := nn.Fit(X); err != nil {
		return nil, err
	}
	g, err := nn.KneighborsGraph(nil)
	if err != nil {
		return nil, err
	}
	return h.EstimateGraph(g)
}

// EstimateGraph computes hubness statistics from a precomputed neighbor
// graph, skipping graph construction. The graph must hold at least K
// neighbors per row; extra neighbors beyond K are ignored.
func (h *Hubness) EstimateGraph(g *NeighborGraph) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("hubness: nil neighbor graph")
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	k := h.cfg.K
	if g.K < k {
		return nil, fmt.Errorf("hubness: neighbor graph holds %d neighbors per row, need %d", g.K, k)
	}
	if k >= g.N {
		return nil, fmt.Errorf("hubness: k=%d must be < n_samples=%d", k, g.N)
	}

	counts := make([]int, g.N)
	for q := 0; q < g.Rows; q++ {
		ind, _ := g.Row(q)
		for _, j := range ind[:k] {
			counts[j]++
		}
	}

	result := statsFromOccurrence(counts, k, h.cfg.HubSize)
	h.result = result

	h.logger.Debug("estimated hubness",
		zap.Int("k", k),
		zap.Int("n_samples", g.N),
		zap.Float64("skewness", result.Skewness),
		zap.Float64("robin_hood", result.RobinHood))

	return result, nil
}

// Result returns the statistics of the last successful estimate.
func (h *Hubness) Result() (*Result, error) {
	if h.result == nil {
		return nil, fmt.Errorf("%w: call Estimate before reading results", ErrNotFitted)
	}
	return h.result, nil
}

// statsFromOccurrence derives all hubness statistics from k-occurrence counts.
func statsFromOccurrence(counts []int, k int, hubSize float64) *Result {
	n := len(counts)
	occ := make([]float64, n)
	for i, c := range counts {
		occ[i] = float64(c)
	}

	total := float64(n * k) // every row emits exactly k edges
	mean := stat.Mean(occ, nil)

	// Skewness as the biased third standardized moment. A degenerate
	// (constant) distribution has no skew.
	m2 := stat.Moment(2, occ, nil)
	m3 := stat.Moment(3, occ, nil)
	skewness := 0.0
	if m2 > 0 {
		skewness = m3 / math.Pow(m2, 1.5)
	}

	var absDev float64
	antihubs := 0
	hubs := 0
	hubThreshold := hubSize * float64(k)
	for _, o := range occ {
		absDev += math.Abs(o - mean)
		if o == 0 {
			antihubs++
		}
		if o >= hubThreshold {
			hubs++
		}
	}

	return &Result{
		K:                 k,
		Skewness:          skewness,
		RobinHood:         0.5 * absDev / total,
		AntihubOccurrence: float64(antihubs) / float64(n),
		HubOccurrence:     float64(hubs) / float64(n),
		GiniIndex:         giniIndex(occ),
		KOccurrence:       counts,
	}
}

// giniIndex computes the Gini coefficient via the sorted-rank formula.
func giniIndex(x []float64) float64 {
	n := len(x)
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	var cum, total float64
	for i, v := range sorted {
		cum += v * float64(i+1)
		total += v
	}
	if total == 0 {
		return 0
	}
	return (2*cum)/(float64(n)*total) - float64(n+1)/float64(n)
}
