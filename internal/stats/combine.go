package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// CombineFisher combines independent p-values with Fisher's method:
// X = -2 Σ ln p has a chi-square distribution with 2k degrees of freedom.
// Inputs are clamped to [smallest positive float64, 1] so a zero p-value
// does not produce an infinite statistic.
func CombineFisher(pvalues ...float64) float64 {
	if len(pvalues) == 0 {
		return 1
	}
	var x float64
	for _, p := range pvalues {
		p = math.Min(math.Max(p, math.SmallestNonzeroFloat64), 1)
		x -= 2 * math.Log(p)
	}
	chi := distuv.ChiSquared{K: float64(2 * len(pvalues))}
	return clamp01(chi.Survival(x))
}
