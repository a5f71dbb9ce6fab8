package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EstimatorConfig controls the default latent estimator's budgets.
type EstimatorConfig struct {
	MaxIterations int     // iteration budget before ErrNonConvergence
	Tolerance     float64 // max abs change in the latent vector to declare convergence
	PriorWeight   float64 // standard-normal prior weight keeping abilities identified
}

// Config represents the complete library configuration
type Config struct {
	Estimator EstimatorConfig
}

// DefaultEstimatorConfig returns the budgets used when nothing is configured.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MaxIterations: 500,
		Tolerance:     1e-6,
		PriorWeight:   1.0,
	}
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() *Config {
	_ = godotenv.Load()

	est := DefaultEstimatorConfig()
	if v := envInt("LATENTSPLIT_MAX_ITER"); v > 0 {
		est.MaxIterations = v
	}
	if v := envFloat("LATENTSPLIT_TOLERANCE"); v > 0 {
		est.Tolerance = v
	}
	if v := envFloat("LATENTSPLIT_PRIOR_WEIGHT"); v > 0 {
		est.PriorWeight = v
	}

	return &Config{Estimator: est}
}

func envInt(key string) int {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func envFloat(key string) float64 {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
