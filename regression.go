package hubness

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// KNeighborsRegressor predicts each query's target as the (optionally
// distance-weighted) mean of its k nearest training targets. It shares its
// configuration with KNeighborsClassifier.
type KNeighborsRegressor struct {
	cfg    ClassifierConfig
	nn     *NearestNeighbors
	y      []float64
	fitted bool
}

// NewKNeighborsRegressor validates the configuration and returns an unfitted
// regressor.
func NewKNeighborsRegressor(cfg ClassifierConfig) (*KNeighborsRegressor, error) {
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
	return &KNeighborsRegressor{cfg: cfg, nn: nn}, nil
}

// Fit stores the training data and targets.
func (r *KNeighborsRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("hubness: X has %d rows but y has %d targets", len(X), len(y))
	}
	if err := r.nn.Fit(X); err != nil {
		return err
	}
	r.y = append([]float64(nil), y...)
	r.fitted = true
	return nil
}

// Predict returns the predicted target for each query row. Q == nil predicts
// on the training set with each point excluded from its own neighborhood.
func (r *KNeighborsRegressor) Predict(Q [][]float64) ([]float64, error) {
	if !r.fitted {
		return nil, fmt.Errorf("%w: call Fit before Predict", ErrNotFitted)
	}
	g, err := r.nn.KneighborsGraph(Q)
	if err != nil {
		return nil, err
	}

	pred := make([]float64, g.Rows)
	for q := 0; q < g.Rows; q++ {
		ind, dist := g.Row(q)
		w := neighborWeights(dist, r.cfg.Weights)
		var sum, total float64
		for i, j := range ind {
			sum += w[i] * r.y[j]
			total += w[i]
		}
		pred[q] = sum / total
	}
	return pred, nil
}

// Score returns the coefficient of determination R² of Predict(Q) against y.
func (r *KNeighborsRegressor) Score(Q [][]float64, y []float64) (float64, error) {
	pred, err := r.Predict(Q)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(y) {
		return 0, fmt.Errorf("hubness: predicted %d targets but y has %d", len(pred), len(y))
	}

	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		d := y[i] - pred[i]
		ssRes += d * d
		t := y[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// KneighborsGraph exposes the underlying neighbor graph used for prediction.
func (r *KNeighborsRegressor) KneighborsGraph(Q [][]float64) (*NeighborGraph, error) {
	if !r.fitted {
		return nil, fmt.Errorf("%w: call Fit before requesting the neighbor graph", ErrNotFitted)
	}
	return r.nn.KneighborsGraph(Q)
}
