package hubness

import (
	"errors"
	"testing"
)

func TestKNeighborsRegressor_NotFitted(t *testing.T) {
	reg, err := NewKNeighborsRegressor(DefaultClassifierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Predict(nil); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Predict before Fit: got %v, want ErrNotFitted", err)
	}
	if _, err := reg.KneighborsGraph(nil); !errors.Is(err, ErrNotFitted) {
		t.Errorf("KneighborsGraph before Fit: got %v, want ErrNotFitted", err)
	}
}

func TestKNeighborsRegressor_UniformMean(t *testing.T) {
	// 1D points with targets equal to their position: the k=2 prediction at
	// a query is the mean of the two nearest targets.
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 10, 20, 30}

	cfg := DefaultClassifierConfig()
	cfg.NNeighbors = 2
	reg, err := NewKNeighborsRegressor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	pred, err := reg.Predict([][]float64{{0.4}, {2.6}})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(pred[0], 5, floatTol) {
		t.Errorf("Predict(0.4) = %v, want 5", pred[0])
	}
	if !almostEqual(pred[1], 25, floatTol) {
		t.Errorf("Predict(2.6) = %v, want 25", pred[1])
	}
}

func TestKNeighborsRegressor_DistanceWeights(t *testing.T) {
	X := [][]float64{{0}, {2}}
	y := []float64{0, 10}

	cfg := DefaultClassifierConfig()
	cfg.NNeighbors = 2
	cfg.Weights = WeightsDistance
	reg, err := NewKNeighborsRegressor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	// Query at 0.5: weights 1/0.5 and 1/1.5, so the prediction is
	// (2·0 + (2/3)·10) / (2 + 2/3) = 2.5.
	pred, err := reg.Predict([][]float64{{0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(pred[0], 2.5, floatTol) {
		t.Errorf("Predict(0.5) = %v, want 2.5", pred[0])
	}

	// An exact match pins the prediction to the matching target.
	pred, err = reg.Predict([][]float64{{2}})
	if err != nil {
		t.Fatal(err)
	}
	if pred[0] != 10 {
		t.Errorf("Predict(exact match) = %v, want 10", pred[0])
	}
}

func TestKNeighborsRegressor_Score(t *testing.T) {
	// Targets follow the first feature of two tight blobs; neighbors share
	// near-identical targets, so R² on the training set is close to 1.
	X, labels := twoBlobs(25, 3, 91)
	y := make([]float64, len(X))
	for i, label := range labels {
		y[i] = float64(label) * 100
	}

	cfg := DefaultClassifierConfig()
	cfg.NNeighbors = 3
	reg, err := NewKNeighborsRegressor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	score, err := reg.Score(nil, y)
	if err != nil {
		t.Fatal(err)
	}
	// Within each blob every neighbor target is identical, so the fit is
	// exact.
	if score != 1.0 {
		t.Errorf("Score = %v, want 1.0", score)
	}
}

func TestKNeighborsRegressor_ScoreConstantTargets(t *testing.T) {
	X := randomData(10, 2, 101)
	y := make([]float64, 10) // all zero

	cfg := DefaultClassifierConfig()
	cfg.NNeighbors = 3
	reg, err := NewKNeighborsRegressor(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	// Constant targets are predicted exactly; R² is 1 by convention.
	score, err := reg.Score(nil, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1.0 {
		t.Errorf("Score = %v, want 1.0 for exactly predicted constant targets", score)
	}
}

func TestKNeighborsRegressor_MismatchedTargets(t *testing.T) {
	reg, err := NewKNeighborsRegressor(DefaultClassifierConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Fit(randomData(8, 2, 7), []float64{1, 2}); err == nil {
		t.Error("expected an error for mismatched X and y lengths")
	}
}
