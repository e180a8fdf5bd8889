package hubness

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
)

// Neighbor weighting schemes.
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// ClassifierConfig controls KNeighborsClassifier behavior.
// Start with [DefaultClassifierConfig] and override the fields you need.
type ClassifierConfig struct {
	// NNeighbors is the number of neighbors that vote. Default: 5.
	NNeighbors int

	// Weights is "uniform" (majority vote) or "distance" (votes weighted
	// by inverse distance; exact matches dominate). Default: "uniform".
	Weights string

	// Algorithm, LeafSize, Metric, P, Hubness, MPMethod, HubnessK,
	// NumWorkers, Seed and Logger configure the underlying
	// NearestNeighbors; see NeighborsConfig.
	Algorithm  Algorithm
	LeafSize   int
	Metric     string
	P          float64
	Hubness    string
	MPMethod   string
	HubnessK   int
	NumWorkers int
	Seed       int64
	Logger     *zap.Logger
}

// DefaultClassifierConfig returns the default configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		NNeighbors: 5,
		Weights:    WeightsUniform,
		Algorithm:  AlgorithmAuto,
		Metric:     MetricEuclidean,
		P:          2,
		MPMethod:   MPMethodEmpiric,
		NumWorkers: runtime.GOMAXPROCS(0),
	}
}

func (cfg ClassifierConfig) neighborsConfig() NeighborsConfig {
	return NeighborsConfig{
		NNeighbors: cfg.NNeighbors,
		Algorithm:  cfg.Algorithm,
		LeafSize:   cfg.LeafSize,
		Metric:     cfg.Metric,
		P:          cfg.P,
		Hubness:    cfg.Hubness,
		MPMethod:   cfg.MPMethod,
		HubnessK:   cfg.HubnessK,
		Seed:       cfg.Seed,
		NumWorkers: cfg.NumWorkers,
		Logger:     cfg.Logger,
	}
}

// KNeighborsClassifier assigns each query point the (optionally
// distance-weighted) majority label among its k nearest training points,
// with ties broken in favor of the nearest neighbor's class.
type KNeighborsClassifier struct {
	cfg     ClassifierConfig
	nn      *NearestNeighbors
	y       []int
	classes []int
	fitted  bool
}

// NewKNeighborsClassifier validates the configuration and returns an
// unfitted classifier.
func NewKNeighborsClassifier(cfg ClassifierConfig) (*KNeighborsClassifier, error) {
	if cfg.Weights == "" {
		cfg.Weights = WeightsUniform
	}
	if cfg.Weights != WeightsUniform && cfg.Weights != WeightsDistance {
		return nil, fmt.Errorf("hubness: unknown weights %q", cfg.Weights)
	}
	nn, err := NewNearestNeighbors(cfg.neighborsConfig())
	if err != nil {
		return nil, err
	}
	return &KNeighborsClassifier{cfg: cfg, nn: nn}, nil
}

// Fit stores the training data and labels. Graph construction is deferred to
// prediction time.
func (c *KNeighborsClassifier) Fit(X [][]float64, y []int) error {
	if len(X) != len(y) {
		return fmt.Errorf("hubness: X has %d rows but y has %d labels", len(X), len(y))
	}
	if err := c.nn.Fit(X); err != nil {
		return err
	}

	c.y = append([]int(nil), y...)

	seen := make(map[int]struct{})
	c.classes = c.classes[:0]
	for _, label := range y {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			c.classes = append(c.classes, label)
		}
	}
	sort.Ints(c.classes)

	c.fitted = true
	return nil
}

// Classes returns the sorted distinct training labels.
func (c *KNeighborsClassifier) Classes() ([]int, error) {
	if !c.fitted {
		return nil, fmt.Errorf("%w: call Fit before reading classes", ErrNotFitted)
	}
	return c.classes, nil
}

// Predict returns the predicted label for each query row. Q == nil predicts
// on the training set with each point excluded from its own neighborhood.
func (c *KNeighborsClassifier) Predict(Q [][]float64) ([]int, error) {
	if !c.fitted {
		return nil, fmt.Errorf("%w: call Fit before Predict", ErrNotFitted)
	}
	g, err := c.nn.KneighborsGraph(Q)
	if err != nil {
		return nil, err
	}

	pred := make([]int, g.Rows)
	for q := 0; q < g.Rows; q++ {
		ind, dist := g.Row(q)
		pred[q] = c.vote(ind, dist)
	}
	return pred, nil
}

// PredictProba returns per-class membership probabilities for each query row,
// columns ordered as Classes().
func (c *KNeighborsClassifier) PredictProba(Q [][]float64) ([][]float64, error) {
	if !c.fitted {
		return nil, fmt.Errorf("%w: call Fit before PredictProba", ErrNotFitted)
	}
	g, err := c.nn.KneighborsGraph(Q)
	if err != nil {
		return nil, err
	}

	classPos := make(map[int]int, len(c.classes))
	for i, label := range c.classes {
		classPos[label] = i
	}

	proba := make([][]float64, g.Rows)
	for q := 0; q < g.Rows; q++ {
		ind, dist := g.Row(q)
		w := neighborWeights(dist, c.cfg.Weights)
		row := make([]float64, len(c.classes))
		var total float64
		for i, j := range ind {
			row[classPos[c.y[j]]] += w[i]
			total += w[i]
		}
		if total > 0 {
			for i := range row {
				row[i] /= total
			}
		}
		proba[q] = row
	}
	return proba, nil
}

// Score returns the mean accuracy of Predict(Q) against y.
func (c *KNeighborsClassifier) Score(Q [][]float64, y []int) (float64, error) {
	pred, err := c.Predict(Q)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(y) {
		return 0, fmt.Errorf("hubness: predicted %d labels but y has %d", len(pred), len(y))
	}
	correct := 0
	for i := range pred {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y)), nil
}

// KneighborsGraph exposes the underlying (optionally hubness-reduced)
// neighbor graph used for prediction. Q == nil returns the training graph.
func (c *KNeighborsClassifier) KneighborsGraph(Q [][]float64) (*NeighborGraph, error) {
	if !c.fitted {
		return nil, fmt.Errorf("%w: call Fit before requesting the neighbor graph", ErrNotFitted)
	}
	return c.nn.KneighborsGraph(Q)
}

// vote picks the label with the largest accumulated weight; ties go to the
// class of the nearest neighbor among the tied classes.
func (c *KNeighborsClassifier) vote(ind []int, dist []float64) int {
	w := neighborWeights(dist, c.cfg.Weights)

	weightByClass := make(map[int]float64)
	for i, j := range ind {
		weightByClass[c.y[j]] += w[i]
	}

	best := math.Inf(-1)
	for _, label := range c.classes {
		if v, ok := weightByClass[label]; ok && v > best {
			best = v
		}
	}

	tied := make(map[int]struct{})
	for label, v := range weightByClass {
		if v == best {
			tied[label] = struct{}{}
		}
	}
	if len(tied) == 1 {
		for label := range tied {
			return label
		}
	}
	// Neighbors are in nearest-first order.
	for _, j := range ind {
		if _, ok := tied[c.y[j]]; ok {
			return c.y[j]
		}
	}
	return c.y[ind[0]]
}

// neighborWeights converts a nearest-first distance list into vote weights.
// With "distance" weighting, an exact match (zero distance) makes the
// zero-distance neighbors the only voters.
func neighborWeights(dist []float64, scheme string) []float64 {
	w := make([]float64, len(dist))
	if scheme == WeightsUniform {
		for i := range w {
			w[i] = 1
		}
		return w
	}

	hasExact := false
	for _, d := range dist {
		if d == 0 {
			hasExact = true
			break
		}
	}
	if hasExact {
		for i, d := range dist {
			if d == 0 {
				w[i] = 1
			}
		}
		return w
	}
	for i, d := range dist {
		w[i] = 1 / d
	}
	return w
}
