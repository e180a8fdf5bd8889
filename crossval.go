package hubness

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// KFold splits n samples into NSplits consecutive folds. With Shuffle set,
// the sample order is permuted by a Seed-determined generator first; the same
// seed always produces the same folds, so two estimators can be compared on
// identical splits.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// Fold holds the train/test index split of one cross-validation round.
type Fold struct {
	Train []int
	Test  []int
}

// Split produces the folds for n samples. Fold sizes differ by at most one,
// with the larger folds first.
func (kf KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 {
		return nil, fmt.Errorf("hubness: n_splits must be >= 2, got %d", kf.NSplits)
	}
	if kf.NSplits > n {
		return nil, fmt.Errorf("hubness: n_splits=%d exceeds n_samples=%d", kf.NSplits, n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if kf.Shuffle {
		rng := rand.New(rand.NewSource(kf.Seed))
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	base := n / kf.NSplits
	extra := n % kf.NSplits
	start := 0
	for f := 0; f < kf.NSplits; f++ {
		size := base
		if f < extra {
			size++
		}
		test := order[start : start+size]
		train := make([]int, 0, n-size)
		train = append(train, order[:start]...)
		train = append(train, order[start+size:]...)
		folds[f] = Fold{Train: train, Test: test}
		start += size
	}
	return folds, nil
}

// CrossValScore evaluates a classifier configuration with k-fold
// cross-validation and returns the per-fold accuracies in fold order. A fresh
// classifier is built and fitted per fold; folds run in parallel.
func CrossValScore(cfg ClassifierConfig, X [][]float64, y []int, kf KFold) ([]float64, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("hubness: X has %d rows but y has %d labels", len(X), len(y))
	}
	folds, err := kf.Split(len(X))
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	var grp errgroup.Group
	for f := range folds {
		f := f
		grp.Go(func() error {
			fold := folds[f]
			clf, err := NewKNeighborsClassifier(cfg)
			if err != nil {
				return err
			}
			trainX, trainY := subset(X, y, fold.Train)
			testX, testY := subset(X, y, fold.Test)
			if err := clf.Fit(trainX, trainY); err != nil {
				return fmt.Errorf("fold %d: %w", f, err)
			}
			score, err := clf.Score(testX, testY)
			if err != nil {
				return fmt.Errorf("fold %d: %w", f, err)
			}
			scores[f] = score
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
