package measure

import (
	"fmt"
	"math"
	"sort"

	"latentsplit/domain/core"
)

// Split identifies which indicator subset produced a latent estimate
type Split int

const (
	SplitFull Split = iota
	SplitA
	SplitB
)

func (s Split) String() string {
	switch s {
	case SplitFull:
		return "full"
	case SplitA:
		return "split_a"
	case SplitB:
		return "split_b"
	default:
		return fmt.Sprintf("split(%d)", int(s))
	}
}

// ObservationSet holds the outcome and the indicator battery.
// Indicator cells use NaN for missing responses.
type ObservationSet struct {
	Outcome    []float64   `json:"outcome"`
	Indicators [][]float64 `json:"indicators"` // N rows x P columns
	// Groups maps each indicator column to a group label so that
	// multi-column expansions of one categorical indicator travel
	// together through the partition. Empty means one group per column.
	Groups []string `json:"groups,omitempty"`
}

// N returns the number of observations.
func (o *ObservationSet) N() int { return len(o.Outcome) }

// P returns the number of indicator columns.
func (o *ObservationSet) P() int {
	if len(o.Indicators) == 0 {
		return 0
	}
	return len(o.Indicators[0])
}

// Validate checks the structural invariants of the set.
func (o *ObservationSet) Validate() error {
	if len(o.Outcome) == 0 {
		return core.NewInvalidInputError("empty outcome vector")
	}
	if len(o.Indicators) != len(o.Outcome) {
		return core.NewInvalidInputError(fmt.Sprintf(
			"indicator matrix has %d rows, outcome has %d", len(o.Indicators), len(o.Outcome)))
	}
	p := o.P()
	if p == 0 {
		return core.NewInvalidInputError("indicator matrix has no columns")
	}
	for i, row := range o.Indicators {
		if len(row) != p {
			return core.NewInvalidInputError(fmt.Sprintf(
				"ragged indicator matrix: row %d has %d columns, expected %d", i, len(row), p))
		}
		allMissing := true
		for _, v := range row {
			if !math.IsNaN(v) {
				allMissing = false
				break
			}
		}
		if allMissing {
			return core.NewInvalidInputError(fmt.Sprintf("indicator row %d is fully missing", i))
		}
	}
	if len(o.Groups) != 0 && len(o.Groups) != p {
		return core.NewInvalidInputError(fmt.Sprintf(
			"group mapping has %d entries for %d columns", len(o.Groups), p))
	}
	return nil
}

// GroupLabels returns the per-column group mapping, defaulting to one
// group per column.
func (o *ObservationSet) GroupLabels() []string {
	if len(o.Groups) == o.P() && len(o.Groups) > 0 {
		return o.Groups
	}
	labels := make([]string, o.P())
	for j := range labels {
		labels[j] = fmt.Sprintf("col_%d", j)
	}
	return labels
}

// DistinctGroups returns the sorted set of distinct group labels.
func (o *ObservationSet) DistinctGroups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range o.GroupLabels() {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

// Submatrix extracts the columns whose group label is in groups,
// preserving column order.
func (o *ObservationSet) Submatrix(groups []string) [][]float64 {
	keep := make(map[string]bool, len(groups))
	for _, g := range groups {
		keep[g] = true
	}
	labels := o.GroupLabels()
	var cols []int
	for j, g := range labels {
		if keep[g] {
			cols = append(cols, j)
		}
	}
	sub := make([][]float64, len(o.Indicators))
	for i, row := range o.Indicators {
		sub[i] = make([]float64, len(cols))
		for k, j := range cols {
			sub[i][k] = row[j]
		}
	}
	return sub
}

// LatentEstimate is a per-observation latent position vector produced
// from one split's indicators, sign-aligned and standardized.
type LatentEstimate struct {
	Split  Split     `json:"split"`
	Values []float64 `json:"values"`
}

// RegressionFit is the coefficient/standard-error/t-statistic triple for
// the predictor of interest (not the intercept).
type RegressionFit struct {
	Coef   float64 `json:"coef"`
	StdErr float64 `json:"std_err"`
	TStat  float64 `json:"t_stat"`
	PValue float64 `json:"p_value"`
	N      int     `json:"n"`
}

// CorrectionMethod names one of the bias-correction estimators
type CorrectionMethod string

const (
	CorrectionErrorVariance CorrectionMethod = "error_variance"
	CorrectionCorrelation   CorrectionMethod = "correlation"
	CorrectionIV            CorrectionMethod = "iv"
)

// CorrectedCoefficient holds one corrected estimate. StdErr and TStat are
// nil where no inference is derivable for the method.
type CorrectedCoefficient struct {
	Method CorrectionMethod `json:"method"`
	Coef   float64          `json:"coef"`
	StdErr *float64         `json:"std_err,omitempty"`
	TStat  *float64         `json:"t_stat,omitempty"`
}

// Report is the immutable output of one invocation of the procedure.
type Report struct {
	RunID core.RunID `json:"run_id"`
	Seed  int64      `json:"seed"`

	SplitAGroups []string `json:"split_a_groups"`
	SplitBGroups []string `json:"split_b_groups"`

	// Baselines: naive OLS of the outcome on the full-sample estimate,
	// and the uncorrected IV fit (split A instrumented by split B).
	OLS RegressionFit `json:"ols"`
	IV  RegressionFit `json:"iv"`

	ErrorVarianceCorrected CorrectedCoefficient `json:"error_variance_corrected"`
	CorrelationCorrected   CorrectedCoefficient `json:"correlation_corrected"`
	IVCorrected            CorrectedCoefficient `json:"iv_corrected"`

	LatentFull []float64 `json:"latent_full"`
	LatentA    []float64 `json:"latent_a"`
	LatentB    []float64 `json:"latent_b"`

	MeasurementErrorVariance float64 `json:"measurement_error_variance"`
}
