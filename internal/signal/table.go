package signal

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gungorbudak/seten-cli/internal/compress"
)

// ErrNoIndex is returned when interval records are read without a coordinate index.
var ErrNoIndex = errors.New("interval records require a coordinate index")

// Locator resolves a genomic interval to gene symbols.
type Locator interface {
	Query(chrom string, start, end int) []string
}

// RecordSource yields records until it returns nil, nil.
type RecordSource interface {
	Next() (*Record, error)
}

// Table maps gene symbols to one aggregated score.
// It is immutable once built and safe for concurrent reads.
type Table struct {
	scores map[string]float64
	genes  []string
	values []float64
}

// NewTable builds a table from a gene to score mapping.
func NewTable(scores map[string]float64) *Table {
	t := &Table{scores: make(map[string]float64, len(scores))}
	for g, s := range scores {
		t.scores[g] = s
	}
	t.genes = make([]string, 0, len(scores))
	for g := range scores {
		t.genes = append(t.genes, g)
	}
	sort.Strings(t.genes)
	t.values = make([]float64, len(t.genes))
	for i, g := range t.genes {
		t.values[i] = t.scores[g]
	}
	return t
}

// Len returns the number of genes in the table.
func (t *Table) Len() int {
	return len(t.genes)
}

// Score returns the score of gene.
func (t *Table) Score(gene string) (float64, bool) {
	s, ok := t.scores[gene]
	return s, ok
}

// Has reports whether gene has a score.
func (t *Table) Has(gene string) bool {
	_, ok := t.scores[gene]
	return ok
}

// Genes returns the genes in sorted order. The slice must not be modified.
func (t *Table) Genes() []string {
	return t.genes
}

// Values returns the scores in the order of Genes. The slice must not be modified.
func (t *Table) Values() []float64 {
	return t.values
}

// Stats summarizes one collection pass.
type Stats struct {
	Records  int // well-formed records read
	Skipped  int // malformed rows
	Unmapped int // interval records that resolved to no gene
}

// Aggregate reduces each gene's score list with method.
func Aggregate(acc map[string][]float64, method Method) *Table {
	reduce := method.Reducer()
	scores := make(map[string]float64, len(acc))
	for gene, list := range acc {
		if len(list) == 0 {
			continue
		}
		scores[gene] = reduce(list)
	}
	return NewTable(scores)
}

// Collect accumulates the scores of every record per gene and reduces them
// with method. Interval records are resolved through loc; each resolved gene
// receives the record's score.
func Collect(src RecordSource, loc Locator, method Method) (*Table, Stats, error) {
	var st Stats
	acc := make(map[string][]float64)

	for {
		rec, err := src.Next()
		if err != nil {
			return nil, st, err
		}
		if rec == nil {
			break
		}
		st.Records++

		if !rec.IsInterval() {
			acc[rec.Gene] = append(acc[rec.Gene], rec.Score)
			continue
		}
		if loc == nil {
			return nil, st, fmt.Errorf("%s:%d-%d: %w", rec.Chrom, rec.Start, rec.End, ErrNoIndex)
		}
		genes := loc.Query(rec.Chrom, rec.Start, rec.End)
		if len(genes) == 0 {
			st.Unmapped++
			continue
		}
		for _, g := range genes {
			acc[g] = append(acc[g], rec.Score)
		}
	}

	if p, ok := src.(*Parser); ok {
		st.Skipped = len(p.Skipped())
	}
	return Aggregate(acc, method), st, nil
}

// CollectFile reads a plain or gzipped signal file and aggregates it.
func CollectFile(path string, loc Locator, method Method, scoreColumn int, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rc, err := compress.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signal file: %w", err)
	}
	defer rc.Close()

	p := NewParser(rc, scoreColumn)
	table, st, err := Collect(p, loc, method)
	if err != nil {
		return nil, fmt.Errorf("collect scores from %s: %w", path, err)
	}

	for _, perr := range p.Skipped() {
		logger.Debug("skipped malformed record", zap.String("file", path), zap.Int("line", perr.Line), zap.String("reason", perr.Message))
	}
	logger.Info("collected gene level scores",
		zap.String("file", path),
		zap.String("method", method.String()),
		zap.Int("records", st.Records),
		zap.Int("skipped", st.Skipped),
		zap.Int("unmapped", st.Unmapped),
		zap.Int("genes", table.Len()))

	return table, nil
}
