package ports

import (
	"latentsplit/domain/measure"
)

// RegressionRunner fits linear models and reports the coefficient,
// standard error and t-statistic for the predictor of interest (never
// the intercept).
type RegressionRunner interface {
	// OLS fits outcome ~ intercept + x (+ controls) by least squares.
	OLS(y, x []float64, controls ...[]float64) (measure.RegressionFit, error)

	// IV fits outcome ~ intercept + x with x instrumented by z
	// (two-stage least squares, one endogenous regressor, one
	// instrument).
	IV(y, x, z []float64) (measure.RegressionFit, error)
}
