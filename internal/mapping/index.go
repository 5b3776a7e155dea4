// Package mapping maps genomic coordinates to gene symbols.
package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one row of a mapping source: a gene and the closed interval it spans.
type Entry struct {
	Chrom  string
	Start  int
	End    int
	Symbol string
}

// NormalizeChrom strips a leading "chr" prefix and rewrites "M" to "MT".
func NormalizeChrom(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "chr")
	if name == "M" {
		return "MT"
	}
	return name
}

// Index maps a normalized chromosome name to an interval tree of genes.
// It is built once and is safe for concurrent queries afterwards.
type Index struct {
	trees map[string]*geneTree
	size  int
}

// NewIndex builds an index from mapping entries.
// Entries with an empty symbol or an inverted range are skipped.
func NewIndex(entries []Entry) (*Index, error) {
	idx := &Index{trees: make(map[string]*geneTree)}

	var uid uintptr
	for _, e := range entries {
		if e.Symbol == "" || e.End < e.Start {
			continue
		}
		chrom := NormalizeChrom(e.Chrom)
		t, ok := idx.trees[chrom]
		if !ok {
			t = newGeneTree()
			idx.trees[chrom] = t
		}
		if err := t.insert(geneInterval{start: e.Start, end: e.End, uid: uid, gene: e.Symbol}); err != nil {
			return nil, fmt.Errorf("chromosome %s: %w", chrom, err)
		}
		uid++
		idx.size++
	}

	for _, t := range idx.trees {
		t.adjust()
	}
	return idx, nil
}

// Query returns the distinct genes whose interval overlaps [start, end], sorted.
// An unknown chromosome yields an empty result.
func (idx *Index) Query(chrom string, start, end int) []string {
	t, ok := idx.trees[NormalizeChrom(chrom)]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var genes []string
	t.overlaps(start, end, func(gene string) {
		if _, dup := seen[gene]; dup {
			return
		}
		seen[gene] = struct{}{}
		genes = append(genes, gene)
	})
	sort.Strings(genes)
	return genes
}

// Len returns the number of intervals in the index.
func (idx *Index) Len() int {
	return idx.size
}

// Chromosomes returns a sorted list of chromosomes in the index.
func (idx *Index) Chromosomes() []string {
	chroms := make([]string, 0, len(idx.trees))
	for chrom := range idx.trees {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}
