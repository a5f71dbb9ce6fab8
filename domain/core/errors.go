package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidInput covers malformed or insufficient input shapes:
	// mismatched vector lengths, fewer than two indicator groups,
	// missing seeds, fully-missing indicator rows.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonConvergence means the latent estimator exhausted its
	// iteration budget before reaching its tolerance. A non-converged
	// estimate is never returned alongside this error.
	ErrNonConvergence = errors.New("latent estimator did not converge")

	// ErrDegenerateSplit means a latent estimate has zero variance, so
	// correlation and standardization are undefined for that split.
	ErrDegenerateSplit = errors.New("degenerate split")

	// ErrInsufficientData means the sample is too small to identify the
	// requested regressions.
	ErrInsufficientData = errors.New("insufficient data")
)

// Pipeline stages, used to tag surfaced errors with the step that failed.
const (
	StagePartition      = "partition"
	StageFullEstimation = "full-sample estimation"
	StageSplitA         = "split-A estimation"
	StageSplitB         = "split-B estimation"
	StageCorrection     = "correction computation"
)

// NewInvalidInputError builds an ErrInvalidInput with a reason.
func NewInvalidInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// NewStageError tags err with the pipeline stage that produced it.
func NewStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// Error checking helpers
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNonConvergenceError(err error) bool {
	return errors.Is(err, ErrNonConvergence)
}

func IsDegenerateSplitError(err error) bool {
	return errors.Is(err, ErrDegenerateSplit)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
