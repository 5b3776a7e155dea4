// Package stats implements the rank, exact and multiple testing statistics
// used by gene set enrichment.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerate is returned when a rank test is undefined because every
// observation is tied.
var ErrDegenerate = errors.New("rank test undefined: all values are tied")

// Rank holds a Mann-Whitney U test result. P is one-sided; double it for a
// two-tailed value.
type Rank struct {
	U float64
	Z float64
	P float64
}

// MannWhitneyU runs the large-sample Mann-Whitney U test with tie and
// continuity correction between x and y. U is the larger of the two U
// statistics.
func MannWhitneyU(x, y []float64) (Rank, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return Rank{}, errors.New("mann-whitney: empty sample")
	}

	ranks, ties := rankData(x, y)

	var r1 float64
	for _, r := range ranks[:n1] {
		r1 += r
	}

	fn1, fn2 := float64(n1), float64(n2)
	u1 := fn1*fn2 + fn1*(fn1+1)/2 - r1
	u2 := fn1*fn2 - u1
	bigU := math.Max(u1, u2)

	n := fn1 + fn2
	t := 1 - ties/(n*n*n-n)
	if t <= 0 {
		return Rank{U: bigU}, ErrDegenerate
	}

	sd := math.Sqrt(t * fn1 * fn2 * (n + 1) / 12)
	z := math.Abs(bigU-0.5-fn1*fn2/2) / sd
	return Rank{U: bigU, Z: z, P: distuv.UnitNormal.Survival(z)}, nil
}

// rankData assigns average ranks to the concatenation of x and y and
// returns them with the tie sum Σ(t³-t) over tie groups.
func rankData(x, y []float64) ([]float64, float64) {
	n := len(x) + len(y)
	values := make([]float64, 0, n)
	values = append(values, x...)
	values = append(values, y...)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	var ties float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		// positions i..j-1 share the average of ranks i+1..j
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			ties += t*t*t - t
		}
		i = j
	}
	return ranks, ties
}
