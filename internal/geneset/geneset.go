// Package geneset loads named gene sets and their collections.
package geneset

import (
	"sort"

	"gopkg.in/fatih/set.v0"
)

// GeneSet is a named set of gene symbols. Duplicate symbols collapse to one.
// A GeneSet is read-only after construction.
type GeneSet struct {
	ID   string
	Name string

	genes set.Interface
}

// New creates a gene set from a list of symbols. Empty symbols are dropped.
func New(id, name string, genes []string) *GeneSet {
	s := set.New(set.NonThreadSafe)
	for _, g := range genes {
		if g != "" {
			s.Add(g)
		}
	}
	return &GeneSet{ID: id, Name: name, genes: s}
}

// Size returns the number of distinct genes.
func (g *GeneSet) Size() int {
	return g.genes.Size()
}

// Has reports whether gene is a member.
func (g *GeneSet) Has(gene string) bool {
	return g.genes.Has(gene)
}

// Genes returns the members in sorted order.
func (g *GeneSet) Genes() []string {
	genes := set.StringSlice(g.genes)
	sort.Strings(genes)
	return genes
}

// Each calls fn for every member in unspecified order.
func (g *GeneSet) Each(fn func(gene string)) {
	g.genes.Each(func(item interface{}) bool {
		fn(item.(string))
		return true
	})
}

// Overlap returns the sorted members for which has returns true.
func (g *GeneSet) Overlap(has func(gene string) bool) []string {
	var overlap []string
	g.Each(func(gene string) {
		if has(gene) {
			overlap = append(overlap, gene)
		}
	})
	sort.Strings(overlap)
	return overlap
}

// Collection is an ordered list of gene sets plus the size of the gene
// universe of every collection loaded for the same organism.
type Collection struct {
	ID           string
	Name         string
	Organism     string
	GeneSets     []*GeneSet
	UniverseSize int
}

// Genes returns the distinct genes across all gene sets of the collection.
func (c *Collection) Genes() set.Interface {
	u := set.New(set.NonThreadSafe)
	for _, gs := range c.GeneSets {
		u.Merge(gs.genes)
	}
	return u
}

// UniverseSize counts the distinct genes across collections.
func UniverseSize(colls []*Collection) int {
	u := set.New(set.NonThreadSafe)
	for _, c := range colls {
		u.Merge(c.Genes())
	}
	return u.Size()
}
