package correction

import (
	"fmt"
	"math"

	"latentsplit/domain/core"
	"latentsplit/domain/measure"
	"latentsplit/internal"
	"latentsplit/ports"

	"gonum.org/v1/gonum/stat"
)

// correlationFloor caps the correlation-based inflation at a factor of
// 1/sqrt(0.01) = 10 when the two splits are nearly uncorrelated.
const correlationFloor = 0.01

// Engine computes the three bias-correction estimators from the pair of
// aligned, standardized split estimates and the outcome.
type Engine struct {
	runner ports.RegressionRunner
	logger *internal.Logger
}

// Result bundles everything the correction stage derives.
type Result struct {
	MeasurementErrorVariance float64

	ErrorVariance measure.CorrectedCoefficient
	Correlation   measure.CorrectedCoefficient
	IV            measure.CorrectedCoefficient

	// BaselineIV is the uncorrected IV fit of the outcome on split A
	// instrumented by split B.
	BaselineIV measure.RegressionFit
}

// New creates a correction engine on top of a regression runner.
func New(runner ports.RegressionRunner, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{runner: runner, logger: logger}
}

// Compute derives the measurement-error variance and the three corrected
// coefficients from (a, b, outcome). Both inputs must already be
// sign-aligned and standardized.
func (e *Engine) Compute(a, b, y []float64) (*Result, error) {
	n := len(y)
	if len(a) != n || len(b) != n {
		return nil, core.NewInvalidInputError(fmt.Sprintf(
			"split estimate lengths mismatch: a=%d b=%d y=%d", len(a), len(b), n))
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: n=%d is too small for the correction regressions",
			core.ErrInsufficientData, n)
	}
	if stat.Variance(a, nil) == 0 || stat.Variance(b, nil) == 0 {
		return nil, fmt.Errorf("%w: a split estimate has zero variance", core.ErrDegenerateSplit)
	}

	// Half the variance of the discrepancy, under i.i.d. errors on a
	// shared true latent value.
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = a[i] - b[i]
	}
	errVar := stat.Variance(diff, nil) / 2

	olsA, err := e.runner.OLS(y, a)
	if err != nil {
		return nil, err
	}
	olsB, err := e.runner.OLS(y, b)
	if err != nil {
		return nil, err
	}

	r := stat.Correlation(a, b, nil)
	e.logger.Debug("correction inputs: corr(a,b)=%.4f errVar=%.4f olsA=%.4f olsB=%.4f",
		r, errVar, olsA.Coef, olsB.Coef)

	// Error-variance-based: inflate each naive slope by sqrt(1 + errVar),
	// a model-free attenuation factor from the split discrepancy.
	inflate := math.Sqrt(1 + errVar)
	evCoef := (olsA.Coef*inflate + olsB.Coef*inflate) / 2

	// Correlation-based: common factor 1/sqrt(corr), floored so a near-zero
	// correlation caps the correction at 10x.
	factor := 1 / math.Sqrt(math.Max(correlationFloor, r))
	corrCoef := (olsA.Coef + olsB.Coef) / 2 * factor

	// IV-based: each split instruments the other. IV already strips most
	// of the attenuation, so the sqrt(corr) scaling here damps rather
	// than inflates.
	ivA, err := e.runner.IV(y, a, b)
	if err != nil {
		return nil, err
	}
	ivB, err := e.runner.IV(y, b, a)
	if err != nil {
		return nil, err
	}
	damp := math.Sqrt(math.Max(correlationFloor, r))
	ivCoef := (ivA.Coef + ivB.Coef) / 2 * damp

	// The corrected t divides the corrected coefficient by the baseline
	// (uncorrected) IV standard error. Numerator and denominator describe
	// different estimators; kept for parity with the established formula
	// and flagged as an approximation rather than real inference.
	ivT := ivCoef / ivA.StdErr

	return &Result{
		MeasurementErrorVariance: errVar,
		ErrorVariance: measure.CorrectedCoefficient{
			Method: measure.CorrectionErrorVariance,
			Coef:   evCoef,
		},
		Correlation: measure.CorrectedCoefficient{
			Method: measure.CorrectionCorrelation,
			Coef:   corrCoef,
		},
		IV: measure.CorrectedCoefficient{
			Method: measure.CorrectionIV,
			Coef:   ivCoef,
			TStat:  &ivT,
		},
		BaselineIV: ivA,
	}, nil
}
