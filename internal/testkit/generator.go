package testkit

import (
	"fmt"
	"math"
	"math/rand"
)

// LatentDataset bundles a synthetic indicator battery with the latent
// truth that generated it, for tests that need a known answer.
type LatentDataset struct {
	Theta      []float64   // true latent positions, standard normal
	Indicators [][]float64 // binary responses, N x P
	Groups     []string    // one group per indicator column
	Outcome    []float64   // TrueSlope*theta + noise
	TrueSlope  float64
}

// GenerateLatentDataset draws n observations answering p binary
// indicators driven by a standard-normal latent trait. Each indicator
// follows a two-parameter logistic response curve with discrimination in
// [1,2) and standard-normal difficulty; the outcome is a linear function
// of the trait plus Gaussian noise.
func GenerateLatentDataset(seed int64, n, p int, slope, noiseSD float64) *LatentDataset {
	rng := rand.New(rand.NewSource(seed))

	disc := make([]float64, p)
	diff := make([]float64, p)
	groups := make([]string, p)
	for j := 0; j < p; j++ {
		disc[j] = 1 + rng.Float64()
		diff[j] = rng.NormFloat64()
		groups[j] = fmt.Sprintf("g%02d", j)
	}

	theta := make([]float64, n)
	indicators := make([][]float64, n)
	outcome := make([]float64, n)
	for i := 0; i < n; i++ {
		theta[i] = rng.NormFloat64()
		row := make([]float64, p)
		for j := 0; j < p; j++ {
			prob := 1 / (1 + math.Exp(-(disc[j]*theta[i] - diff[j])))
			if rng.Float64() < prob {
				row[j] = 1
			}
		}
		indicators[i] = row
		outcome[i] = slope*theta[i] + noiseSD*rng.NormFloat64()
	}

	return &LatentDataset{
		Theta:      theta,
		Indicators: indicators,
		Groups:     groups,
		Outcome:    outcome,
		TrueSlope:  slope,
	}
}

// WithMissing blanks out each indicator cell with probability rate,
// never leaving a row fully missing.
func (d *LatentDataset) WithMissing(seed int64, rate float64) *LatentDataset {
	rng := rand.New(rand.NewSource(seed))
	for i, row := range d.Indicators {
		kept := len(row)
		for j := range row {
			if kept > 1 && rng.Float64() < rate {
				d.Indicators[i][j] = math.NaN()
				kept--
			}
		}
	}
	return d
}
