// Package hubness analyzes hubness in high-dimensional nearest-neighbor data
// and provides hubness-reduced k-nearest-neighbor learning.
//
// Hubness is the tendency of a few points ("hubs") in high-dimensional spaces
// to appear in the nearest-neighbor lists of a disproportionate share of all
// other points, while many points ("antihubs") never appear at all. The
// package measures it and reduces it.
//
// Estimating hubness:
//
//	cfg := hubness.DefaultHubnessConfig()
//	cfg.K = 10
//	h, err := hubness.NewHubness(cfg)
//	result, err := h.Estimate(X)
//	// result.Skewness is the primary indicator: the skew of the
//	// k-occurrence distribution. result.RobinHood, result.AntihubOccurrence
//	// and result.HubOccurrence describe the same distribution.
//
// Reducing hubness before classification:
//
//	cfg := hubness.DefaultClassifierConfig()
//	cfg.NNeighbors = 5
//	cfg.Hubness = "mutual_proximity"
//	clf, err := hubness.NewKNeighborsClassifier(cfg)
//	err = clf.Fit(X, y)
//	pred, err := clf.Predict(queries)
//
// # Backend selection
//
// By default (Algorithm: "auto"), neighbor search picks a backend based on
// the metric and dimensionality: a KD-tree for axis-decomposable metrics on
// low-dimensional data, a ball tree for other tree-safe metrics, brute force
// otherwise. Hubness reductions need every query-to-train distance and
// therefore always run on the brute backend. An approximate LSH backend is
// available for large vanilla-kNN workloads:
//
//	cfg.Algorithm = hubness.AlgorithmBrute    // full distance matrix
//	cfg.Algorithm = hubness.AlgorithmKDTree   // exact, axis-decomposable metrics
//	cfg.Algorithm = hubness.AlgorithmBallTree // exact, any triangle-inequality metric
//	cfg.Algorithm = hubness.AlgorithmLSH      // approximate, random hyperplanes
package hubness
