package irt

import (
	"context"
	"errors"
	"testing"

	"latentsplit/domain/core"
	"latentsplit/internal/config"
	"latentsplit/internal/testkit"
	"latentsplit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestEstimate_RecoversLatentOrdering(t *testing.T) {
	data := testkit.GenerateLatentDataset(42, 300, 12, 1.0, 0.5)

	// Anchor on the observation with the largest true position so the
	// recovered dimension points the same way as the truth.
	anchor := 0
	for i, v := range data.Theta {
		if v > data.Theta[anchor] {
			anchor = i
		}
	}

	est, err := NewDefault().Estimate(context.Background(), ports.LatentRequest{
		Indicators:  data.Indicators,
		AnchorIndex: anchor,
	})
	require.NoError(t, err)
	require.Len(t, est, 300)

	r := stat.Correlation(est, data.Theta, nil)
	assert.Greater(t, r, 0.8, "estimate should track the true latent positions")
	assert.Greater(t, est[anchor], 0.0, "anchor sign must be positive")
}

func TestEstimate_Deterministic(t *testing.T) {
	data := testkit.GenerateLatentDataset(123, 120, 8, 1.0, 0.5)
	req := ports.LatentRequest{Indicators: data.Indicators}

	first, err := NewDefault().Estimate(context.Background(), req)
	require.NoError(t, err)
	second, err := NewDefault().Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "no internal randomness: runs must be bit-identical")
}

func TestEstimate_HandlesMissingCells(t *testing.T) {
	data := testkit.GenerateLatentDataset(7, 200, 10, 1.0, 0.5).WithMissing(8, 0.15)

	est, err := NewDefault().Estimate(context.Background(), ports.LatentRequest{
		Indicators: data.Indicators,
	})
	require.NoError(t, err)

	r := stat.Correlation(est, data.Theta, nil)
	if r < 0 {
		r = -r
	}
	assert.Greater(t, r, 0.7)
}

func TestEstimate_NonConvergenceSurfaces(t *testing.T) {
	data := testkit.GenerateLatentDataset(42, 100, 8, 1.0, 0.5)

	cfg := config.DefaultEstimatorConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-12

	_, err := New(cfg, nil).Estimate(context.Background(), ports.LatentRequest{
		Indicators: data.Indicators,
	})
	require.Error(t, err)
	assert.True(t, core.IsNonConvergenceError(err))
}

func TestEstimate_ContextCancellation(t *testing.T) {
	data := testkit.GenerateLatentDataset(42, 100, 8, 1.0, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDefault().Estimate(ctx, ports.LatentRequest{Indicators: data.Indicators})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEstimate_InputValidation(t *testing.T) {
	_, err := NewDefault().Estimate(context.Background(), ports.LatentRequest{})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInputError(err))

	_, err = NewDefault().Estimate(context.Background(), ports.LatentRequest{
		Indicators:  [][]float64{{1, 0}, {0, 1}},
		AnchorIndex: 5,
	})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInputError(err))
}
