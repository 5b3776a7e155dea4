package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChrom(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"chr1", "1"},
		{"1", "1"},
		{"chrX", "X"},
		{"chrM", "MT"},
		{"M", "MT"},
		{"MT", "MT"},
		{"chrMT", "MT"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeChrom(tt.in))
		})
	}
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex(nil)
	require.NoError(t, err)
	assert.Empty(t, idx.Query("1", 100, 200))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_SingleGene(t *testing.T) {
	idx, err := NewIndex([]Entry{{Chrom: "1", Start: 100, End: 200, Symbol: "GENE_A"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"GENE_A"}, idx.Query("1", 150, 160))
	assert.Equal(t, []string{"GENE_A"}, idx.Query("1", 50, 100), "start boundary inclusive")
	assert.Equal(t, []string{"GENE_A"}, idx.Query("1", 200, 300), "end boundary inclusive")
	assert.Empty(t, idx.Query("1", 50, 99), "before start")
	assert.Empty(t, idx.Query("1", 201, 300), "after end")
	assert.Equal(t, []string{"GENE_A"}, idx.Query("1", 10, 1000), "query spans gene")
}

func TestIndex_UnknownChromosome(t *testing.T) {
	idx, err := NewIndex([]Entry{{Chrom: "1", Start: 100, End: 200, Symbol: "GENE_A"}})
	require.NoError(t, err)
	assert.Empty(t, idx.Query("22", 100, 200))
	assert.Empty(t, idx.Query("", 100, 200))
}

func TestIndex_ChromosomeAliases(t *testing.T) {
	idx, err := NewIndex([]Entry{
		{Chrom: "MT", Start: 1, End: 500, Symbol: "MT-ND1"},
		{Chrom: "chr1", Start: 100, End: 200, Symbol: "GENE_A"},
	})
	require.NoError(t, err)

	assert.Equal(t, idx.Query("MT", 10, 20), idx.Query("chrM", 10, 20))
	assert.Equal(t, idx.Query("MT", 10, 20), idx.Query("M", 10, 20))
	assert.Equal(t, []string{"MT-ND1"}, idx.Query("chrM", 10, 20))
	assert.Equal(t, idx.Query("1", 150, 150), idx.Query("chr1", 150, 150))
	assert.Equal(t, []string{"GENE_A"}, idx.Query("1", 150, 150))
	assert.Equal(t, []string{"1", "MT"}, idx.Chromosomes())
}

func TestIndex_DistinctGenes(t *testing.T) {
	// Two intervals of the same gene (e.g. alternative records) return it once.
	idx, err := NewIndex([]Entry{
		{Chrom: "1", Start: 100, End: 300, Symbol: "GENE_A"},
		{Chrom: "1", Start: 250, End: 400, Symbol: "GENE_A"},
		{Chrom: "1", Start: 280, End: 290, Symbol: "GENE_B"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GENE_A", "GENE_B"}, idx.Query("1", 260, 285))
	assert.Equal(t, 3, idx.Len())
}

func TestIndex_SkipsInvalidEntries(t *testing.T) {
	idx, err := NewIndex([]Entry{
		{Chrom: "1", Start: 300, End: 100, Symbol: "INVERTED"},
		{Chrom: "1", Start: 100, End: 200, Symbol: ""},
		{Chrom: "1", Start: 100, End: 200, Symbol: "OK"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []string{"OK"}, idx.Query("1", 0, 1000))
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	entries := []Entry{
		{Chrom: "1", Start: 1000, End: 5000, Symbol: "A"},
		{Chrom: "1", Start: 2000, End: 3000, Symbol: "B"},
		{Chrom: "1", Start: 4000, End: 8000, Symbol: "C"},
		{Chrom: "1", Start: 6000, End: 7000, Symbol: "D"},
		{Chrom: "1", Start: 9000, End: 10000, Symbol: "E"},
		{Chrom: "1", Start: 9500, End: 9500, Symbol: "F"},
		{Chrom: "1", Start: 105, End: 500, Symbol: "G"},
		{Chrom: "1", Start: 100, End: 110, Symbol: "H"},
	}
	idx, err := NewIndex(entries)
	require.NoError(t, err)

	for start := 0; start <= 11000; start += 250 {
		for _, width := range []int{0, 1, 499, 1500} {
			end := start + width

			linear := map[string]bool{}
			for _, e := range entries {
				if start <= e.End && end >= e.Start {
					linear[e.Symbol] = true
				}
			}
			tree := map[string]bool{}
			for _, g := range idx.Query("1", start, end) {
				tree[g] = true
			}
			assert.Equal(t, linear, tree, "query [%d,%d]", start, end)
		}
	}
}
