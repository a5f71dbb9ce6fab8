package ports

import (
	"context"
)

// LatentRequest describes one latent-trait extraction.
type LatentRequest struct {
	// Indicators is the N x K indicator submatrix for this split,
	// binary or dummy-expanded, NaN for missing cells.
	Indicators [][]float64

	// Init is the per-observation initialization vector, typically the
	// row-wise mean of the indicators. Nil lets the estimator choose.
	Init []float64

	// AnchorIndex is the observation whose latent sign is fixed
	// positive, pinning the direction of the recovered dimension.
	AnchorIndex int
}

// LatentEstimator extracts a one-dimensional latent position per
// observation from an indicator submatrix. Implementations return
// core.ErrNonConvergence when the iteration budget runs out; callers
// must not treat a non-converged result as valid.
type LatentEstimator interface {
	Estimate(ctx context.Context, req LatentRequest) ([]float64, error)
}
