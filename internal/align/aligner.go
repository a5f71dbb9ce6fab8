package align

import (
	"fmt"

	"latentsplit/domain/core"
	"latentsplit/internal"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// DirectionAligner enforces a consistent sign convention across the
// full-sample and split-sample latent estimates, then standardizes each
// to zero mean and unit variance. Independently estimated latent
// dimensions carry an arbitrary sign, so estimates are comparable only
// after this step.
type DirectionAligner struct {
	logger *internal.Logger
}

// New creates an aligner.
func New(logger *internal.Logger) *DirectionAligner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DirectionAligner{logger: logger}
}

// AlignFull orients the full-sample estimate so its correlation with the
// outcome is non-negative. An exactly-zero correlation leaves the sign
// unchanged; that degenerate case is logged and otherwise tolerated.
func (a *DirectionAligner) AlignFull(est, outcome []float64) ([]float64, error) {
	r := stat.Correlation(est, outcome, nil)
	if r == 0 {
		a.logger.Warn("full-sample latent estimate is uncorrelated with the outcome; sign left unchanged")
	}
	if r < 0 {
		est = negate(est)
	}
	return standardize(est)
}

// AlignSplitA standardizes the split-A estimate. Its sign stays on the
// estimator's internal anchor; split B is aligned against it afterwards.
func (a *DirectionAligner) AlignSplitA(est []float64) ([]float64, error) {
	return standardize(est)
}

// AlignSplitB flips the split-B estimate iff its raw correlation with the
// already-aligned split-A estimate is negative, so both splits measure
// the same direction of the latent trait before their difference is taken.
func (a *DirectionAligner) AlignSplitB(est, reference []float64) ([]float64, error) {
	r := stat.Correlation(est, reference, nil)
	if r < 0 {
		est = negate(est)
	}
	return standardize(est)
}

// standardize rescales to mean zero, unit sample variance.
func standardize(v []float64) ([]float64, error) {
	mean, err := stats.Mean(v)
	if err != nil {
		return nil, core.NewInvalidInputError(fmt.Sprintf("standardize: %v", err))
	}
	sd, err := stats.StandardDeviationSample(v)
	if err != nil {
		return nil, core.NewInvalidInputError(fmt.Sprintf("standardize: %v", err))
	}
	if sd == 0 {
		return nil, fmt.Errorf("%w: latent estimate has zero variance", core.ErrDegenerateSplit)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - mean) / sd
	}
	return out, nil
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}
