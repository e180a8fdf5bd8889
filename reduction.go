package hubness

import "fmt"

// Recognized hubness-reduction names for config fields. The empty string
// means no reduction. Short aliases follow the original method names.
const (
	ReductionNone            = ""
	ReductionMutualProximity = "mutual_proximity"
	ReductionLocalScaling    = "local_scaling"
	ReductionNICDM           = "nicdm"
	ReductionDisSimLocal     = "dis_sim_local"
)

// HubnessReduction rescales pairwise distances so that hubs stop dominating
// neighbor lists. A reduction is fitted once on the training set's distance
// matrix and then transforms query-to-train distance blocks.
//
// trainX/queryX are flat row-major feature matrices; reductions that operate
// on distances alone ignore them and accept nil. selfQuery signals that the
// block being transformed is the training matrix itself (row q corresponds to
// training point q), so self-distances can be skipped where that matters.
type HubnessReduction interface {
	Fit(trainDist []float64, n int, trainX []float64, dims int) error
	Transform(dist []float64, rows int, queryX []float64, selfQuery bool) ([]float64, error)
}

// ReductionByName resolves a hubness-reduction name, including aliases
// ("mp", "ls", "dsl"). mpMethod selects the mutual-proximity variant and k
// the neighborhood size used by the scaling reductions. An empty name yields
// NoReduction.
func ReductionByName(name, mpMethod string, k int) (HubnessReduction, error) {
	switch name {
	case ReductionNone, "none":
		return NoReduction{}, nil
	case ReductionMutualProximity, "mp":
		return NewMutualProximity(mpMethod)
	case ReductionLocalScaling, "ls":
		return NewLocalScaling(k, false)
	case ReductionNICDM:
		return NewLocalScaling(k, true)
	case ReductionDisSimLocal, "dsl":
		return NewDisSimLocal(k)
	default:
		return nil, fmt.Errorf("hubness: unknown hubness reduction %q", name)
	}
}

// NoReduction passes distances through unchanged (vanilla kNN).
type NoReduction struct{}

func (NoReduction) Fit(trainDist []float64, n int, trainX []float64, dims int) error {
	return nil
}

func (NoReduction) Transform(dist []float64, rows int, queryX []float64, selfQuery bool) ([]float64, error) {
	return dist, nil
}
