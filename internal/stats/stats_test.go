package stats

import (
	"math"
	"math/big"
	"math/rand"
	"sort"
	"testing"

	fet "github.com/glycerine/golang-fisher-exact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestMannWhitneyU_Separated(t *testing.T) {
	r, err := MannWhitneyU([]float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)

	assert.Equal(t, 9.0, r.U)
	want := distuv.UnitNormal.Survival(4 / math.Sqrt(5.25))
	assert.InDelta(t, want, r.P, 1e-12)
	assert.InDelta(t, 0.0404, r.P, 1e-3)
}

func TestMannWhitneyU_Ties(t *testing.T) {
	r, err := MannWhitneyU([]float64{1, 2, 2}, []float64{2, 3, 4})
	require.NoError(t, err)

	// ranks 1,3,3 | 3,5,6; one tie group of three
	assert.Equal(t, 8.0, r.U)
	tie := 1 - 24.0/210.0
	sd := math.Sqrt(tie * 9 * 7 / 12)
	assert.InDelta(t, 3/sd, r.Z, 1e-12)
	assert.InDelta(t, distuv.UnitNormal.Survival(3/sd), r.P, 1e-12)
}

func TestMannWhitneyU_Symmetric(t *testing.T) {
	x := []float64{0.3, 1.7, 2.2, 5.1, 0.9}
	y := []float64{2.5, 3.3, 0.1, 4.4}
	a, err := MannWhitneyU(x, y)
	require.NoError(t, err)
	b, err := MannWhitneyU(y, x)
	require.NoError(t, err)
	assert.InDelta(t, a.P, b.P, 1e-12)
	assert.Equal(t, a.U, b.U)
}

func TestMannWhitneyU_Degenerate(t *testing.T) {
	_, err := MannWhitneyU([]float64{2, 2}, []float64{2, 2, 2})
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = MannWhitneyU(nil, []float64{1})
	assert.Error(t, err)
}

func TestFunctionalTable(t *testing.T) {
	assert.Equal(t, Contingency{N11: 2, N12: 3, N21: 2, N22: 1}, FunctionalTable(2, 3, 4, 4))
}

func TestFisherExact(t *testing.T) {
	// hypergeometric over n11 in 1..4 with weights 5, 30, 30, 5
	p := FisherExact(FunctionalTable(2, 3, 4, 4))
	assert.InDelta(t, 65.0/70.0, p, 1e-9)

	assert.Equal(t, 1.0, FisherExact(Contingency{N11: 1, N12: 1, N21: -1, N22: 1}))
}

func TestFisherExact_StrongEnrichment(t *testing.T) {
	p := FisherExact(Contingency{N11: 10, N12: 0, N21: 0, N22: 10})
	assert.Less(t, p, 1e-4)
}

// exactRightTail computes P(X >= N11) with exact integer arithmetic.
func exactRightTail(c Contingency) float64 {
	row, col := c.N11+c.N12, c.N11+c.N21
	n := row + c.N21 + c.N22
	num := new(big.Int)
	for k := c.N11; k <= row && k <= col; k++ {
		if row-k > n-col {
			continue
		}
		term := new(big.Int).Binomial(int64(col), int64(k))
		term.Mul(term, new(big.Int).Binomial(int64(n-col), int64(row-k)))
		num.Add(num, term)
	}
	den := new(big.Int).Binomial(int64(n), int64(row))
	f, _ := new(big.Rat).SetFrac(num, den).Float64()
	return f
}

func TestFisherExact_LargeTables(t *testing.T) {
	tests := []struct {
		name string
		c    Contingency
	}{
		{"genome universe", FunctionalTable(5, 50, 2000, 20000)},
		{"enriched", FunctionalTable(5, 10, 500, 20000)},
		{"null", FunctionalTable(8, 8, 200, 300)},
		{"gene set is the universe", FunctionalTable(8, 300, 400, 300)},
		{"depleted", FunctionalTable(0, 200, 1500, 20000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FisherExact(tt.c)
			require.False(t, math.IsNaN(got))
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
			want := exactRightTail(tt.c)
			assert.InDelta(t, want, got, 1e-9+1e-7*want)
		})
	}
}

func TestFisherExact_MatchesLibraryOnSmallTables(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		c := Contingency{N11: rng.Intn(15), N12: rng.Intn(15), N21: rng.Intn(15), N22: rng.Intn(15)}
		_, _, rightp, _ := fet.FisherExactTest(c.N11, c.N12, c.N21, c.N22)
		assert.InDelta(t, exactRightTail(c), FisherExact(c), 1e-9, "%+v", c)
		assert.InDelta(t, rightp, FisherExact(c), 1e-6, "%+v", c)
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 1.0, clamp01(math.NaN()))
	assert.Equal(t, 0.0, clamp01(-0.1))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.25, clamp01(0.25))
}

func TestParseCorrection(t *testing.T) {
	tests := []struct {
		in   string
		want Correction
	}{
		{"bh", BH},
		{"fdr", BH},
		{"BY", BY},
		{"bon", Bonferroni},
		{"bonferroni", Bonferroni},
	}
	for _, tt := range tests {
		got, err := ParseCorrection(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCorrection("holm")
	assert.ErrorIs(t, err, ErrUnknownCorrection)
	assert.Equal(t, "bon", Bonferroni.String())
}

func TestBH(t *testing.T) {
	adj, rej := BH.Correct([]float64{0.01, 0.04, 0.03, 0.005}, 0.05)
	assert.InDeltaSlice(t, []float64{0.02, 0.04, 0.04, 0.02}, adj, 1e-12)
	assert.Equal(t, []bool{true, true, true, true}, rej)
}

func TestBH_StepUp(t *testing.T) {
	// only rank 2 is below its line, rank 1 is rejected with it
	adj, rej := BH.Correct([]float64{0.02, 0.03, 0.2}, 0.05)
	assert.Equal(t, []bool{true, true, false}, rej)
	assert.InDeltaSlice(t, []float64{0.045, 0.045, 0.2}, adj, 1e-12)
}

func TestBY(t *testing.T) {
	cm := 1 + 0.5 + 1.0/3
	adj, rej := BY.Correct([]float64{0.02, 0.03, 0.2}, 0.05)
	assert.Equal(t, []bool{false, false, false}, rej)
	assert.InDeltaSlice(t, []float64{0.045 * cm, 0.045 * cm, 0.2 * cm}, adj, 1e-12)
}

func TestBH_MonotoneAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := make([]float64, 60)
	for i := range p {
		p[i] = rng.Float64()
	}
	p[3], p[9] = 0.99, 0.99

	for _, c := range []Correction{BH, BY} {
		adj, _ := c.Correct(p, 0.05)
		order := make([]int, len(p))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
		for i := 1; i < len(order); i++ {
			assert.LessOrEqual(t, adj[order[i-1]], adj[order[i]], c.String())
		}
		for _, v := range adj {
			assert.LessOrEqual(t, v, 1.0)
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestBonferroni(t *testing.T) {
	p := []float64{0.01, 0.2, 0.6, 0.001}
	adj, rej := Bonferroni.Correct(p, 0.05)
	for i, v := range p {
		assert.InDelta(t, math.Min(v*4, 1), adj[i], 1e-12)
	}
	assert.InDelta(t, 0.04, adj[0], 1e-12)
	assert.Equal(t, 1.0, adj[2])
	assert.Equal(t, []bool{true, false, false, true}, rej)
}

func TestCorrect_Empty(t *testing.T) {
	for _, c := range []Correction{BH, BY, Bonferroni} {
		adj, rej := c.Correct(nil, 0.05)
		assert.Empty(t, adj)
		assert.Empty(t, rej)
	}
}

func TestCombineFisher(t *testing.T) {
	assert.InDelta(t, 0.05, CombineFisher(0.05), 1e-12)

	x := -4 * math.Log(0.1)
	assert.InDelta(t, math.Exp(-x/2)*(1+x/2), CombineFisher(0.1, 0.1), 1e-12)

	assert.InDelta(t, 1.0, CombineFisher(1, 1), 1e-12)
	assert.Equal(t, 1.0, CombineFisher())

	p := CombineFisher(0, 0.5)
	assert.False(t, math.IsNaN(p))
	assert.GreaterOrEqual(t, p, 0.0)
	assert.Less(t, p, 1e-100)
}
