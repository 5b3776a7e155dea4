package enrich

import (
	"math"
	"math/rand"

	"github.com/gungorbudak/seten-cli/internal/geneset"
	"github.com/gungorbudak/seten-cli/internal/signal"
	"github.com/gungorbudak/seten-cli/internal/stats"
)

// Result is the outcome of testing one gene set. P-values that the run's
// method does not compute are left at zero.
type Result struct {
	ID          string
	Name        string
	Genes       []string // overlap genes, sorted
	OverlapSize int
	GeneSetSize int
	Percent     float64

	PermutationPValue         float64
	FunctionalPValue          float64
	CorrectedFunctionalPValue float64
	Rejected                  bool
	CombinedPValue            float64
}

// Job is one gene set test. The table and params are shared read-only
// across jobs.
type Job struct {
	Index        int
	GeneSet      *geneset.GeneSet
	Table        *signal.Table
	UniverseSize int
	Params       *Params
}

// NewJobs builds one job per gene set of coll that passes the size cutoff.
func NewJobs(coll *geneset.Collection, table *signal.Table, params *Params) []Job {
	jobs := make([]Job, 0, len(coll.GeneSets))
	for _, gs := range coll.GeneSets {
		if gs.Size() > params.GeneSetCutoff {
			continue
		}
		jobs = append(jobs, Job{
			Index:        len(jobs),
			GeneSet:      gs,
			Table:        table,
			UniverseSize: coll.UniverseSize,
			Params:       params,
		})
	}
	return jobs
}

// Run tests one gene set. It returns nil when the gene set is filtered out
// by the size or overlap cutoffs.
func Run(job Job) *Result {
	gs, p := job.GeneSet, job.Params
	if gs.Size() > p.GeneSetCutoff {
		return nil
	}

	overlap := gs.Overlap(job.Table.Has)
	if len(overlap) == 0 || len(overlap) < p.OverlapCutoff {
		return nil
	}

	r := &Result{
		ID:          gs.ID,
		Name:        gs.Name,
		Genes:       overlap,
		OverlapSize: len(overlap),
		GeneSetSize: gs.Size(),
		Percent:     float64(len(overlap)) / float64(gs.Size()) * 100,
	}

	if p.Method.Permutation() {
		scores := make([]float64, len(overlap))
		for i, g := range overlap {
			scores[i], _ = job.Table.Score(g)
		}
		rng := rand.New(rand.NewSource(p.Seed + int64(job.Index)))
		r.PermutationPValue = PermutationPValue(job.Table.Values(), scores, p, rng)
	}
	if p.Method.Functional() {
		r.FunctionalPValue = FunctionalPValue(len(overlap), gs.Size(), job.Table.Len(), job.UniverseSize)
	}
	return r
}

// PermutationPValue draws p.Iterations random samples of len(overlap)
// scores from background without replacement. An iteration is a hit when
// the overlap median compares to the sample median by p.Operator and the
// two-tailed Mann-Whitney p-value is below p.SignificanceCutoff. Tied
// samples where the rank test is undefined are not hits. The result is the
// fraction of misses floored at 1/iterations.
func PermutationPValue(background, overlap []float64, p *Params, rng *rand.Rand) float64 {
	iters := float64(p.Iterations)
	k := len(overlap)
	if k == 0 || k > len(background) {
		return 1
	}

	median := signal.Median.Reducer()
	overlapMedian := median(overlap)

	pool := make([]float64, len(background))
	copy(pool, background)

	hits := 0
	for it := 0; it < p.Iterations; it++ {
		sample := drawSample(pool, k, rng)
		if !p.Operator.Holds(overlapMedian, median(sample)) {
			continue
		}
		rank, err := stats.MannWhitneyU(overlap, sample)
		if err != nil {
			continue
		}
		if math.Min(2*rank.P, 1) < p.SignificanceCutoff {
			hits++
		}
	}

	return math.Max(1-float64(hits)/iters, 1/iters)
}

// drawSample moves a uniform random k-subset of pool to its front with a
// partial Fisher-Yates shuffle and returns it.
func drawSample(pool []float64, k int, rng *rand.Rand) []float64 {
	n := len(pool)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// FunctionalPValue is the one-sided Fisher exact p-value of overlap size a,
// gene set size b, dataset gene count c and universe size d.
func FunctionalPValue(a, b, c, d int) float64 {
	return stats.FisherExact(stats.FunctionalTable(a, b, c, d))
}

// Correct adjusts the functional p-values of a batch with c at level alpha.
func Correct(results []*Result, c stats.Correction, alpha float64) {
	if len(results) == 0 {
		return
	}
	raw := make([]float64, len(results))
	for i, r := range results {
		raw[i] = r.FunctionalPValue
	}
	adjusted, reject := c.Correct(raw, alpha)
	for i, r := range results {
		r.CorrectedFunctionalPValue = adjusted[i]
		r.Rejected = reject[i]
	}
}

// Combine sets the combined p-value of the permutation and corrected
// functional p-values.
func Combine(results []*Result) {
	for _, r := range results {
		r.CombinedPValue = stats.CombineFisher(r.PermutationPValue, r.CorrectedFunctionalPValue)
	}
}

// Reported returns the p-value by which a result of method m is judged:
// permutation for gse, corrected functional for fe and combined for both.
func (r *Result) Reported(m Method) float64 {
	switch m {
	case FE:
		return r.CorrectedFunctionalPValue
	case Both:
		return r.CombinedPValue
	}
	return r.PermutationPValue
}
