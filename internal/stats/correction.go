package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnknownCorrection is returned for an unrecognized correction name.
var ErrUnknownCorrection = errors.New("unknown correction method")

// Correction selects a multiple testing correction.
type Correction int

const (
	// BH is the Benjamini-Hochberg step-up false discovery rate.
	BH Correction = iota
	// BY is the Benjamini-Yekutieli false discovery rate for dependent tests.
	BY
	// Bonferroni multiplies each p-value by the number of tests.
	Bonferroni
)

var correctionNames = map[Correction]string{
	BH:         "bh",
	BY:         "by",
	Bonferroni: "bon",
}

func (c Correction) String() string {
	if s, ok := correctionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Correction(%d)", int(c))
}

// ParseCorrection parses bh, by or bon. fdr is accepted for bh.
func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bh", "fdr":
		return BH, nil
	case "by":
		return BY, nil
	case "bon", "bonferroni":
		return Bonferroni, nil
	}
	return 0, fmt.Errorf("%w %q (want bh, by or bon)", ErrUnknownCorrection, s)
}

// CorrectFunc adjusts a batch of p-values at level alpha. Both outputs are
// in input order.
type CorrectFunc func(pvalues []float64, alpha float64) (adjusted []float64, reject []bool)

// Func returns the correction procedure for c.
func (c Correction) Func() CorrectFunc {
	switch c {
	case BH:
		return func(p []float64, alpha float64) ([]float64, []bool) { return fdr(p, alpha, 1) }
	case BY:
		return func(p []float64, alpha float64) ([]float64, []bool) { return fdr(p, alpha, harmonic(len(p))) }
	case Bonferroni:
		return bonferroni
	}
	panic(fmt.Sprintf("stats: invalid correction %d", int(c)))
}

// Correct applies c to pvalues.
func (c Correction) Correct(pvalues []float64, alpha float64) ([]float64, []bool) {
	return c.Func()(pvalues, alpha)
}

func harmonic(n int) float64 {
	var cm float64
	for i := 1; i <= n; i++ {
		cm += 1 / float64(i)
	}
	return cm
}

// fdr is the step-up procedure with rank fractions i/n divided by cm.
func fdr(pvalues []float64, alpha, cm float64) ([]float64, []bool) {
	n := len(pvalues)
	adjusted := make([]float64, n)
	reject := make([]bool, n)
	if n == 0 {
		return adjusted, reject
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })

	ecdf := make([]float64, n)
	last := -1
	for i, idx := range order {
		ecdf[i] = float64(i+1) / float64(n) / cm
		if pvalues[idx] < ecdf[i]*alpha {
			last = i
		}
	}

	sorted := make([]float64, n)
	for i, idx := range order {
		sorted[i] = pvalues[idx] / ecdf[i]
	}
	running := math.Inf(1)
	for i := n - 1; i >= 0; i-- {
		running = math.Min(running, sorted[i])
		sorted[i] = math.Min(running, 1)
	}

	for i, idx := range order {
		adjusted[idx] = sorted[i]
		reject[idx] = i <= last
	}
	return adjusted, reject
}

// bonferroni rejects p·n < alpha. Adjusted values are clipped at 1.
func bonferroni(pvalues []float64, alpha float64) ([]float64, []bool) {
	n := float64(len(pvalues))
	adjusted := make([]float64, len(pvalues))
	reject := make([]bool, len(pvalues))
	for i, p := range pvalues {
		adj := p * n
		reject[i] = adj < alpha
		adjusted[i] = math.Min(adj, 1)
	}
	return adjusted, reject
}
