package measure

import (
	"math"
	"testing"

	"latentsplit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationSet_Validate(t *testing.T) {
	nan := math.NaN()

	cases := []struct {
		name string
		set  ObservationSet
		ok   bool
	}{
		{
			name: "valid",
			set: ObservationSet{
				Outcome:    []float64{1, 2},
				Indicators: [][]float64{{1, 0}, {0, 1}},
			},
			ok: true,
		},
		{
			name: "empty outcome",
			set:  ObservationSet{Indicators: [][]float64{{1}}},
		},
		{
			name: "row count mismatch",
			set: ObservationSet{
				Outcome:    []float64{1, 2, 3},
				Indicators: [][]float64{{1, 0}, {0, 1}},
			},
		},
		{
			name: "ragged rows",
			set: ObservationSet{
				Outcome:    []float64{1, 2},
				Indicators: [][]float64{{1, 0}, {0}},
			},
		},
		{
			name: "fully missing row",
			set: ObservationSet{
				Outcome:    []float64{1, 2},
				Indicators: [][]float64{{1, 0}, {nan, nan}},
			},
		},
		{
			name: "group mapping wrong length",
			set: ObservationSet{
				Outcome:    []float64{1, 2},
				Indicators: [][]float64{{1, 0}, {0, 1}},
				Groups:     []string{"a"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.set.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsInvalidInputError(err))
		})
	}
}

func TestObservationSet_GroupDefaults(t *testing.T) {
	set := ObservationSet{
		Outcome:    []float64{1, 2},
		Indicators: [][]float64{{1, 0, 1}, {0, 1, 0}},
	}

	assert.Equal(t, []string{"col_0", "col_1", "col_2"}, set.GroupLabels())
	assert.Equal(t, []string{"col_0", "col_1", "col_2"}, set.DistinctGroups())
}

func TestObservationSet_Submatrix(t *testing.T) {
	set := ObservationSet{
		Outcome: []float64{1, 2, 3},
		Indicators: [][]float64{
			{1, 2, 3, 4},
			{5, 6, 7, 8},
			{9, 10, 11, 12},
		},
		Groups: []string{"a", "b", "a", "c"},
	}

	sub := set.Submatrix([]string{"a"})
	assert.Equal(t, [][]float64{{1, 3}, {5, 7}, {9, 11}}, sub)

	sub = set.Submatrix([]string{"b", "c"})
	assert.Equal(t, [][]float64{{2, 4}, {6, 8}, {10, 12}}, sub)
}

func TestSplit_String(t *testing.T) {
	assert.Equal(t, "full", SplitFull.String())
	assert.Equal(t, "split_a", SplitA.String())
	assert.Equal(t, "split_b", SplitB.String())
}
