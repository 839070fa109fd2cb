package graphdata

import (
	"fmt"
	"math/rand"
)

// Split holds three disjoint sets of node positions.
type Split struct {
	Train []int
	Valid []int
	Test  []int
}

// DefaultFractions is the reference 0.80/0.05/0.15 partition.
var DefaultFractions = [3]float64{0.80, 0.05, 0.15}

// RandomSplit shuffles node positions [0, n) with the given generator and
// cuts three contiguous blocks of floor(n·fraction) indices each. When
// the floored sizes sum to less than n the surplus indices at the tail of
// the permutation belong to no split.
func RandomSplit(n int, fractions [3]float64, rng *rand.Rand) (Split, error) {
	if n <= 0 {
		return Split{}, fmt.Errorf("cannot split %d nodes", n)
	}
	var total float64
	for _, f := range fractions {
		if f < 0 {
			return Split{}, fmt.Errorf("negative split fraction %g", f)
		}
		total += f
	}
	if total > 1+1e-9 {
		return Split{}, fmt.Errorf("split fractions sum to %g > 1", total)
	}

	perm := rng.Perm(n)

	trainN := int(float64(n) * fractions[0])
	validN := int(float64(n) * fractions[1])
	testN := int(float64(n) * fractions[2])

	return Split{
		Train: perm[:trainN],
		Valid: perm[trainN : trainN+validN],
		Test:  perm[trainN+validN : trainN+validN+testN],
	}, nil
}

// Size returns the total number of assigned node positions.
func (s Split) Size() int {
	return len(s.Train) + len(s.Valid) + len(s.Test)
}
