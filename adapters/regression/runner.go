package regression

import (
	"fmt"
	"math"

	"latentsplit/domain/core"
	"latentsplit/domain/measure"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Runner fits ordinary least squares and two-stage least squares models
// on dense gonum design matrices. It implements ports.RegressionRunner.
type Runner struct{}

// New creates a regression runner.
func New() *Runner {
	return &Runner{}
}

// OLS fits y ~ intercept + x (+ controls) and reports the triple for x.
func (r *Runner) OLS(y, x []float64, controls ...[]float64) (measure.RegressionFit, error) {
	n := len(y)
	if len(x) != n {
		return measure.RegressionFit{}, core.NewInvalidInputError(fmt.Sprintf(
			"predictor length %d, outcome length %d", len(x), n))
	}
	for i, c := range controls {
		if len(c) != n {
			return measure.RegressionFit{}, core.NewInvalidInputError(fmt.Sprintf(
				"control %d has length %d, outcome length %d", i, len(c), n))
		}
	}
	k := 2 + len(controls)
	if n <= k {
		return measure.RegressionFit{}, fmt.Errorf(
			"%w: n=%d cannot identify %d coefficients", core.ErrInsufficientData, n, k)
	}

	X := designMatrix(n, x, controls)
	beta, xtxInv, err := solveNormal(X, y)
	if err != nil {
		return measure.RegressionFit{}, err
	}

	// Residual variance with actual regressors.
	s2 := residualVariance(X, y, beta, n-k)
	return fitFor(beta[1], s2*xtxInv.At(1, 1), n, n-k)
}

// IV fits y ~ intercept + x with x instrumented by z via two-stage least
// squares. The standard error uses second-stage coefficients with
// residuals computed from the actual (not fitted) regressor, the
// conventional 2SLS variance.
func (r *Runner) IV(y, x, z []float64) (measure.RegressionFit, error) {
	n := len(y)
	if len(x) != n || len(z) != n {
		return measure.RegressionFit{}, core.NewInvalidInputError(fmt.Sprintf(
			"IV lengths mismatch: y=%d x=%d z=%d", n, len(x), len(z)))
	}
	if n <= 2 {
		return measure.RegressionFit{}, fmt.Errorf(
			"%w: n=%d cannot identify an IV slope", core.ErrInsufficientData, n)
	}

	// First stage: x on the instrument.
	Z := designMatrix(n, z, nil)
	gamma, _, err := solveNormal(Z, x)
	if err != nil {
		return measure.RegressionFit{}, err
	}
	xhat := make([]float64, n)
	for i := range xhat {
		xhat[i] = gamma[0] + gamma[1]*z[i]
	}

	// Second stage: y on the fitted regressor.
	Xhat := designMatrix(n, xhat, nil)
	beta, xtxInv, err := solveNormal(Xhat, y)
	if err != nil {
		return measure.RegressionFit{}, err
	}

	// 2SLS residuals use the endogenous regressor itself.
	var rss float64
	for i := range y {
		e := y[i] - beta[0] - beta[1]*x[i]
		rss += e * e
	}
	s2 := rss / float64(n-2)
	return fitFor(beta[1], s2*xtxInv.At(1, 1), n, n-2)
}

// designMatrix builds [1, x, controls...] as an n x k dense matrix.
func designMatrix(n int, x []float64, controls [][]float64) *mat.Dense {
	k := 2 + len(controls)
	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		X.Set(i, 1, x[i])
		for j, c := range controls {
			X.Set(i, 2+j, c[i])
		}
	}
	return X
}

// solveNormal solves the least-squares normal equations, returning the
// coefficient vector and (X'X)^{-1} for standard errors.
func solveNormal(X *mat.Dense, y []float64) ([]float64, *mat.Dense, error) {
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, fmt.Errorf("%w: singular design matrix", core.ErrDegenerateSplit)
	}

	yv := mat.NewVecDense(len(y), y)
	var xty mat.VecDense
	xty.MulVec(X.T(), yv)

	var b mat.VecDense
	b.MulVec(&inv, &xty)

	beta := make([]float64, b.Len())
	for i := range beta {
		beta[i] = b.AtVec(i)
	}
	return beta, &inv, nil
}

func residualVariance(X *mat.Dense, y, beta []float64, df int) float64 {
	n, k := X.Dims()
	var rss float64
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < k; j++ {
			fitted += X.At(i, j) * beta[j]
		}
		e := y[i] - fitted
		rss += e * e
	}
	return rss / float64(df)
}

// fitFor assembles the coefficient triple plus a two-sided p-value from
// the Student's t distribution.
func fitFor(coef, variance float64, n, df int) (measure.RegressionFit, error) {
	if variance < 0 || math.IsNaN(variance) {
		return measure.RegressionFit{}, fmt.Errorf(
			"%w: negative coefficient variance", core.ErrDegenerateSplit)
	}
	se := math.Sqrt(variance)
	t := math.Inf(1)
	p := 0.0
	if se > 0 {
		t = coef / se
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
		p = 2 * dist.Survival(math.Abs(t))
	}
	return measure.RegressionFit{Coef: coef, StdErr: se, TStat: t, PValue: p, N: n}, nil
}
