package mapping

import (
	"fmt"

	"github.com/biogo/store/interval"
)

// geneInterval is a closed [Start, End] range carrying one gene symbol.
type geneInterval struct {
	start, end int
	uid        uintptr
	gene       string
}

// Overlap uses closed-interval semantics: both ends are inclusive.
func (g geneInterval) Overlap(b interval.IntRange) bool {
	return g.start <= b.End && g.end >= b.Start
}

func (g geneInterval) ID() uintptr { return g.uid }

func (g geneInterval) Range() interval.IntRange {
	return interval.IntRange{Start: g.start, End: g.end}
}

func (g geneInterval) String() string {
	return fmt.Sprintf("[%d,%d]#%d-%s", g.start, g.end, g.uid, g.gene)
}

// query is the range handed to IntTree.Get.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.start <= b.End && q.end >= b.Start
}

// geneTree provides O(log n + k) overlap queries for one chromosome.
// Intervals are inserted during build and never modified afterwards.
type geneTree struct {
	tree *interval.IntTree
	n    int
}

func newGeneTree() *geneTree {
	return &geneTree{tree: &interval.IntTree{}}
}

func (t *geneTree) insert(iv geneInterval) error {
	if err := t.tree.Insert(iv, true); err != nil {
		return fmt.Errorf("insert interval %v: %w", iv, err)
	}
	t.n++
	return nil
}

// adjust must be called once after the last insert.
func (t *geneTree) adjust() {
	t.tree.AdjustRanges()
}

// overlaps calls fn for every stored interval overlapping [start, end].
func (t *geneTree) overlaps(start, end int, fn func(gene string)) {
	if t.n == 0 || start > end {
		return
	}
	for _, iv := range t.tree.Get(query{start: start, end: end}) {
		fn(iv.(geneInterval).gene)
	}
}
