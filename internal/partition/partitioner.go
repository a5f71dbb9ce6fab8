package partition

import (
	"fmt"
	"math/rand"
	"sort"

	"latentsplit/domain/core"
)

// IndicatorPartitioner splits indicator groups into two disjoint halves
// with a deterministic seed.
type IndicatorPartitioner struct {
	seed int64
}

// New creates a partitioner with a specific seed for reproducibility.
func New(seed int64) *IndicatorPartitioner {
	return &IndicatorPartitioner{seed: seed}
}

// Split draws a half/half partition of the distinct group labels without
// replacement. Split A gets floor(len/2) groups, split B the remainder,
// so an odd count leaves B one group larger. Both returned slices are
// sorted for stable downstream output.
func (p *IndicatorPartitioner) Split(groups []string) (a, b []string, err error) {
	distinct := distinctSorted(groups)
	if len(distinct) < 2 {
		return nil, nil, core.NewInvalidInputError(fmt.Sprintf(
			"need at least 2 indicator groups to split, got %d", len(distinct)))
	}

	// Shuffle a copy with a deterministic seed; the sorted base order
	// keeps the draw independent of caller ordering.
	shuffled := make([]string, len(distinct))
	copy(shuffled, distinct)
	rng := rand.New(rand.NewSource(p.seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nA := len(shuffled) / 2
	a = append([]string(nil), shuffled[:nA]...)
	b = append([]string(nil), shuffled[nA:]...)
	sort.Strings(a)
	sort.Strings(b)
	return a, b, nil
}

func distinctSorted(groups []string) []string {
	seen := make(map[string]bool, len(groups))
	var out []string
	for _, g := range groups {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}
