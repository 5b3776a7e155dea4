package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// Contingency is a 2x2 table [[N11, N12], [N21, N22]].
type Contingency struct {
	N11, N12, N21, N22 int
}

// FunctionalTable builds the enrichment table [[a, b], [c-a, d-b]] from the
// overlap size a, gene set size b, dataset gene count c and universe size d.
func FunctionalTable(a, b, c, d int) Contingency {
	return Contingency{N11: a, N12: b, N21: c - a, N22: d - b}
}

// FisherExact returns the one-sided (right tail) Fisher exact p-value for
// over-representation in the top left cell, P(X >= N11) for X
// hypergeometric with the table's margins. A table with a negative cell
// has no support and yields 1.
//
// Terms are summed in log space, so tables with genome-sized margins stay
// finite.
func FisherExact(t Contingency) float64 {
	if t.N11 < 0 || t.N12 < 0 || t.N21 < 0 || t.N22 < 0 {
		return 1
	}
	row := t.N11 + t.N12
	col := t.N11 + t.N21
	n := row + t.N21 + t.N22
	hi := row
	if col < hi {
		hi = col
	}

	logTotal := logChoose(n, row)
	terms := make([]float64, 0, hi-t.N11+1)
	for k := t.N11; k <= hi; k++ {
		if row-k > n-col {
			continue
		}
		terms = append(terms, logChoose(col, k)+logChoose(n-col, row-k)-logTotal)
	}
	return clamp01(math.Exp(logSumExp(terms)))
}

func logChoose(n, k int) float64 {
	return combin.LogGeneralizedBinomial(float64(n), float64(k))
}

func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	var s float64
	for _, x := range xs {
		s += math.Exp(x - m)
	}
	return m + math.Log(s)
}

// clamp01 bounds p to [0, 1]. NaN maps to 1.
func clamp01(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
