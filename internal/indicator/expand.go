package indicator

import (
	"math"
	"sort"
)

// ExpandCategorical dummy-expands categorical indicator columns. Columns
// with more than two distinct observed levels become one {0,1} column per
// non-reference level (the lowest level is the reference). Binary columns
// pass through unchanged. Every expanded column inherits its source
// column's group label, so the whole expansion lands in the same split.
// Missing cells (NaN) stay missing in every derived column.
func ExpandCategorical(indicators [][]float64, groups []string) ([][]float64, []string) {
	if len(indicators) == 0 {
		return indicators, groups
	}
	p := len(indicators[0])

	type column struct {
		source int
		level  float64 // NaN for pass-through columns
	}
	var plan []column
	for j := 0; j < p; j++ {
		levels := distinctLevels(indicators, j)
		if len(levels) <= 2 {
			plan = append(plan, column{source: j, level: math.NaN()})
			continue
		}
		// One dummy per level beyond the reference.
		for _, lv := range levels[1:] {
			plan = append(plan, column{source: j, level: lv})
		}
	}

	out := make([][]float64, len(indicators))
	for i, row := range indicators {
		expanded := make([]float64, len(plan))
		for k, c := range plan {
			v := row[c.source]
			switch {
			case math.IsNaN(v):
				expanded[k] = math.NaN()
			case math.IsNaN(c.level):
				expanded[k] = v
			case v == c.level:
				expanded[k] = 1
			default:
				expanded[k] = 0
			}
		}
		out[i] = expanded
	}

	outGroups := make([]string, len(plan))
	for k, c := range plan {
		outGroups[k] = groups[c.source]
	}
	return out, outGroups
}

// distinctLevels returns the sorted distinct non-missing values of column j.
func distinctLevels(indicators [][]float64, j int) []float64 {
	seen := make(map[float64]bool)
	var levels []float64
	for _, row := range indicators {
		v := row[j]
		if math.IsNaN(v) || seen[v] {
			continue
		}
		seen[v] = true
		levels = append(levels, v)
	}
	sort.Float64s(levels)
	return levels
}
