package app

import (
	"context"
	"math/rand"

	"latentsplit/domain/core"
	"latentsplit/domain/measure"
	"latentsplit/internal"
	"latentsplit/internal/align"
	"latentsplit/internal/correction"
	"latentsplit/internal/indicator"
	"latentsplit/internal/partition"
	"latentsplit/ports"

	"golang.org/x/sync/errgroup"
)

// Request describes one invocation of the split-sample procedure.
type Request struct {
	Observations measure.ObservationSet

	// ExpandCategorical dummy-expands multi-level indicator columns
	// before estimation; the expanded columns keep their source group.
	ExpandCategorical bool

	// AnchorIndex is the observation whose latent sign the estimator
	// pins positive. Defaults to observation 0.
	AnchorIndex int

	// Seed drives the indicator partition and must be positive. The
	// core never draws its own seed; callers wanting the conventional
	// random default use RandomSeed().
	Seed int64
}

// RandomSeed draws the documented default partition seed, uniform over
// [1, 10000]. Kept outside Run so the procedure itself stays a pure
// function of its inputs.
func RandomSeed() int64 {
	return rand.Int63n(10000) + 1
}

// MeasurementService orchestrates the split-sample measurement-error
// correction: partition the indicator groups, extract a latent estimate
// per split, align signs, and derive corrected slopes.
type MeasurementService struct {
	estimator ports.LatentEstimator
	runner    ports.RegressionRunner
	aligner   *align.DirectionAligner
	logger    *internal.Logger
}

// NewMeasurementService wires the service with its collaborators.
func NewMeasurementService(estimator ports.LatentEstimator, runner ports.RegressionRunner, logger *internal.Logger) *MeasurementService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MeasurementService{
		estimator: estimator,
		runner:    runner,
		aligner:   align.New(logger),
		logger:    logger,
	}
}

// Run executes the full procedure and returns the assembled report.
// Identical inputs and seed produce identical estimates and coefficients;
// any failure surfaces the stage it happened in. There is no
// partial-result mode.
func (s *MeasurementService) Run(ctx context.Context, req Request) (*measure.Report, error) {
	if req.Seed <= 0 {
		return nil, core.NewInvalidInputError("seed must be positive; draw one with app.RandomSeed() for the conventional default")
	}
	obs := req.Observations
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if req.AnchorIndex < 0 || req.AnchorIndex >= obs.N() {
		return nil, core.NewInvalidInputError("anchor index outside the observation range")
	}

	indicators := obs.Indicators
	groups := obs.GroupLabels()
	if req.ExpandCategorical {
		indicators, groups = indicator.ExpandCategorical(indicators, groups)
	}
	working := measure.ObservationSet{
		Outcome:    obs.Outcome,
		Indicators: indicators,
		Groups:     groups,
	}

	aGroups, bGroups, err := partition.New(req.Seed).Split(groups)
	if err != nil {
		return nil, core.NewStageError(core.StagePartition, err)
	}
	s.logger.Info("partitioned %d indicator groups into %d/%d with seed %d",
		len(aGroups)+len(bGroups), len(aGroups), len(bGroups), req.Seed)

	subFull := working.Indicators
	subA := working.Submatrix(aGroups)
	subB := working.Submatrix(bGroups)

	// The full-sample estimate is independent of the splits and runs
	// concurrently; split B waits on split A because its sign alignment
	// takes A's aligned vector as the reference.
	var latentFull, latentA, latentB []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		est, err := s.estimate(gctx, subFull, req.AnchorIndex)
		if err != nil {
			return core.NewStageError(core.StageFullEstimation, err)
		}
		latentFull, err = s.aligner.AlignFull(est, working.Outcome)
		if err != nil {
			return core.NewStageError(core.StageFullEstimation, err)
		}
		return nil
	})
	g.Go(func() error {
		estA, err := s.estimate(gctx, subA, req.AnchorIndex)
		if err != nil {
			return core.NewStageError(core.StageSplitA, err)
		}
		latentA, err = s.aligner.AlignSplitA(estA)
		if err != nil {
			return core.NewStageError(core.StageSplitA, err)
		}

		estB, err := s.estimate(gctx, subB, req.AnchorIndex)
		if err != nil {
			return core.NewStageError(core.StageSplitB, err)
		}
		latentB, err = s.aligner.AlignSplitB(estB, latentA)
		if err != nil {
			return core.NewStageError(core.StageSplitB, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseline, err := s.runner.OLS(working.Outcome, latentFull)
	if err != nil {
		return nil, core.NewStageError(core.StageCorrection, err)
	}

	corrected, err := correction.New(s.runner, s.logger).Compute(latentA, latentB, working.Outcome)
	if err != nil {
		return nil, core.NewStageError(core.StageCorrection, err)
	}

	return &measure.Report{
		RunID:                    core.RunID(core.NewID()),
		Seed:                     req.Seed,
		SplitAGroups:             aGroups,
		SplitBGroups:             bGroups,
		OLS:                      baseline,
		IV:                       corrected.BaselineIV,
		ErrorVarianceCorrected:   corrected.ErrorVariance,
		CorrelationCorrected:     corrected.Correlation,
		IVCorrected:              corrected.IV,
		LatentFull:               latentFull,
		LatentA:                  latentA,
		LatentB:                  latentB,
		MeasurementErrorVariance: corrected.MeasurementErrorVariance,
	}, nil
}

func (s *MeasurementService) estimate(ctx context.Context, indicators [][]float64, anchor int) ([]float64, error) {
	return s.estimator.Estimate(ctx, ports.LatentRequest{
		Indicators:  indicators,
		AnchorIndex: anchor,
	})
}
