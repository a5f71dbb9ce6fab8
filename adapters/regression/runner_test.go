package regression

import (
	"math/rand"
	"testing"

	"latentsplit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOLS_RecoversExactSlope(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 1 + 2*x[i] // exact line
	}

	fit, err := New().OLS(y, x)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, fit.Coef, 1e-10)
	assert.InDelta(t, 0.0, fit.StdErr, 1e-10)
	assert.Equal(t, len(x), fit.N)
}

func TestOLS_NoisySlopeAndInference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 500
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = rng.NormFloat64()
		y[i] = 0.5 + 1.5*x[i] + rng.NormFloat64()*0.5
	}

	fit, err := New().OLS(y, x)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, fit.Coef, 0.1)
	assert.Greater(t, fit.StdErr, 0.0)
	assert.Greater(t, fit.TStat, 10.0)
	assert.Less(t, fit.PValue, 1e-6)
}

func TestOLS_WithControl(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 400
	x := make([]float64, n)
	c := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = rng.NormFloat64()
		c[i] = 0.6*x[i] + rng.NormFloat64() // correlated control
		y[i] = 2*x[i] - 1*c[i] + rng.NormFloat64()*0.3
	}

	fit, err := New().OLS(y, x, c)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Coef, 0.1)
}

func TestIV_RemovesAttenuation(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	n := 3000
	trueBeta := 1.0
	x := make([]float64, n)
	z := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		latent := rng.NormFloat64()
		x[i] = latent + rng.NormFloat64() // noisy measurement
		z[i] = latent + rng.NormFloat64() // independent noisy measurement
		y[i] = trueBeta*latent + rng.NormFloat64()*0.5
	}

	ols, err := New().OLS(y, x)
	require.NoError(t, err)
	iv, err := New().IV(y, x, z)
	require.NoError(t, err)

	// OLS should attenuate toward beta/2 (signal-to-total variance 0.5),
	// the IV fit should sit near the true slope.
	assert.InDelta(t, 0.5, ols.Coef, 0.08)
	assert.InDelta(t, trueBeta, iv.Coef, 0.1)
	assert.Greater(t, iv.StdErr, ols.StdErr)
}

func TestRunner_TooFewObservations(t *testing.T) {
	_, err := New().OLS([]float64{1, 2}, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))

	_, err = New().IV([]float64{1, 2}, []float64{1, 2}, []float64{2, 1})
	require.Error(t, err)
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestRunner_ConstantPredictorIsDegenerate(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	flat := []float64{2, 2, 2, 2, 2}

	_, err := New().OLS(y, flat)
	require.Error(t, err)
	assert.True(t, core.IsDegenerateSplitError(err))
}

func TestRunner_LengthMismatch(t *testing.T) {
	_, err := New().OLS([]float64{1, 2, 3}, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInputError(err))
}
