package irt

import (
	"context"
	"fmt"
	"math"

	"latentsplit/domain/core"
	"latentsplit/internal"
	"latentsplit/internal/config"
	"latentsplit/ports"

	"gonum.org/v1/gonum/floats"
)

// maxNewtonStep bounds a single parameter update so early sweeps on
// rough initializations cannot overshoot.
const maxNewtonStep = 1.0

// Estimator is a one-dimensional two-parameter logistic item-response
// estimator. It alternates Newton sweeps over item parameters
// (discrimination, difficulty) and per-observation latent positions, with
// a standard-normal prior on the positions keeping the scale identified.
// It implements ports.LatentEstimator.
type Estimator struct {
	cfg    config.EstimatorConfig
	logger *internal.Logger
}

// New creates an estimator with explicit budgets.
func New(cfg config.EstimatorConfig, logger *internal.Logger) *Estimator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Estimator{cfg: cfg, logger: logger}
}

// NewDefault creates an estimator with the default budgets.
func NewDefault() *Estimator {
	return New(config.DefaultEstimatorConfig(), nil)
}

// Estimate extracts one latent position per observation. Missing cells
// (NaN) are skipped in every likelihood sum. The returned vector has the
// anchor observation's sign fixed positive.
func (e *Estimator) Estimate(ctx context.Context, req ports.LatentRequest) ([]float64, error) {
	n := len(req.Indicators)
	if n == 0 {
		return nil, core.NewInvalidInputError("empty indicator matrix")
	}
	k := len(req.Indicators[0])
	if k == 0 {
		return nil, core.NewInvalidInputError("indicator matrix has no columns")
	}
	if req.AnchorIndex < 0 || req.AnchorIndex >= n {
		return nil, core.NewInvalidInputError(fmt.Sprintf(
			"anchor index %d outside [0,%d)", req.AnchorIndex, n))
	}

	theta := e.initTheta(req)
	disc := make([]float64, k)
	diff := make([]float64, k)
	for j := range disc {
		disc[j] = 1
	}

	next := make([]float64, n)
	converged := false
	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("latent estimation aborted: %w", err)
		}

		e.updateItems(req.Indicators, theta, disc, diff)
		e.updateTheta(req.Indicators, theta, next, disc, diff)

		delta := floats.Distance(theta, next, math.Inf(1))
		copy(theta, next)
		if delta < e.cfg.Tolerance {
			e.logger.Debug("latent estimator converged after %d iterations (delta=%.2e)", iter+1, delta)
			converged = true
			break
		}
	}
	if !converged {
		return nil, fmt.Errorf("%w: budget of %d iterations exhausted (tolerance %.1e)",
			core.ErrNonConvergence, e.cfg.MaxIterations, e.cfg.Tolerance)
	}

	// Pin the anchor observation's sign positive.
	if theta[req.AnchorIndex] < 0 {
		for i := range theta {
			theta[i] = -theta[i]
		}
	}
	return theta, nil
}

// initTheta seeds the latent positions from the caller's initialization
// vector or, failing that, centered row means of the indicators.
func (e *Estimator) initTheta(req ports.LatentRequest) []float64 {
	n := len(req.Indicators)
	theta := make([]float64, n)
	if len(req.Init) == n {
		copy(theta, req.Init)
	} else {
		for i, row := range req.Indicators {
			sum, count := 0.0, 0
			for _, v := range row {
				if !math.IsNaN(v) {
					sum += v
					count++
				}
			}
			if count > 0 {
				theta[i] = sum / float64(count)
			}
		}
	}
	// Center; the prior handles scale.
	mean := floats.Sum(theta) / float64(n)
	for i := range theta {
		theta[i] -= mean
	}
	return theta
}

// updateItems runs one Newton step per item on discrimination and
// difficulty, with a small ridge keeping both finite on separable items.
func (e *Estimator) updateItems(y [][]float64, theta, disc, diff []float64) {
	const ridge = 0.1
	for j := range disc {
		var gradA, hessA, gradB, hessB float64
		for i, row := range y {
			v := row[j]
			if math.IsNaN(v) {
				continue
			}
			p := logistic(disc[j]*theta[i] - diff[j])
			w := p * (1 - p)
			gradA += theta[i] * (v - p)
			hessA += theta[i] * theta[i] * w
			gradB += -(v - p)
			hessB += w
		}
		gradA -= ridge * disc[j]
		hessA += ridge
		gradB -= ridge * diff[j]
		hessB += ridge
		disc[j] += clampStep(gradA / hessA)
		diff[j] += clampStep(gradB / hessB)
	}
}

// updateTheta runs one MAP Newton step per observation into next.
func (e *Estimator) updateTheta(y [][]float64, theta, next, disc, diff []float64) {
	prior := e.cfg.PriorWeight
	for i, row := range y {
		var grad, hess float64
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			p := logistic(disc[j]*theta[i] - diff[j])
			grad += disc[j] * (v - p)
			hess += disc[j] * disc[j] * p * (1 - p)
		}
		grad -= prior * theta[i]
		hess += prior
		next[i] = theta[i] + clampStep(grad/hess)
	}
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampStep(s float64) float64 {
	if s > maxNewtonStep {
		return maxNewtonStep
	}
	if s < -maxNewtonStep {
		return -maxNewtonStep
	}
	return s
}
