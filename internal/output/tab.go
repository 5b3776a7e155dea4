// Package output writes enrichment results.
package output

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gungorbudak/seten-cli/internal/enrich"
)

// Column is one p-value column of the result table.
type Column int

const (
	FunctionalPValue Column = iota
	CorrectedFunctionalPValue
	PermutationPValue
	CombinedPValue
)

var columnNames = [...]string{
	FunctionalPValue:          "fe_pvalue",
	CorrectedFunctionalPValue: "fe_pvalue_corrected",
	PermutationPValue:         "gse_pvalue",
	CombinedPValue:            "combined_pvalue",
}

func (c Column) String() string { return columnNames[c] }

func (c Column) value(r *enrich.Result) float64 {
	switch c {
	case FunctionalPValue:
		return r.FunctionalPValue
	case CorrectedFunctionalPValue:
		return r.CorrectedFunctionalPValue
	case PermutationPValue:
		return r.PermutationPValue
	}
	return r.CombinedPValue
}

// Columns returns the p-value columns computed by method m.
func Columns(m enrich.Method) []Column {
	switch m {
	case enrich.FE:
		return []Column{FunctionalPValue, CorrectedFunctionalPValue}
	case enrich.Both:
		return []Column{FunctionalPValue, CorrectedFunctionalPValue, PermutationPValue, CombinedPValue}
	}
	return []Column{PermutationPValue}
}

// TabWriter writes results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []Column
}

// NewTabWriter creates a writer for the columns of method m.
func NewTabWriter(w io.Writer, m enrich.Method) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w), columns: Columns(m)}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	header := []string{"name", "genes", "overlap_size", "gene_set_size", "percent"}
	for _, c := range tw.columns {
		header = append(header, c.String())
	}
	_, err := tw.w.WriteString(strings.Join(header, "\t") + "\n")
	return err
}

// Write writes a single result.
func (tw *TabWriter) Write(r *enrich.Result) error {
	values := []string{
		r.Name,
		strings.Join(r.Genes, ", "),
		strconv.Itoa(r.OverlapSize),
		strconv.Itoa(r.GeneSetSize),
		formatFloat(r.Percent),
	}
	for _, c := range tw.columns {
		values = append(values, formatFloat(c.value(r)))
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Significant returns the results whose reported p-value under m is below
// cutoff, ordered by that p-value. Ties keep their input order.
func Significant(results []*enrich.Result, m enrich.Method, cutoff float64) []*enrich.Result {
	var out []*enrich.Result
	for _, r := range results {
		if r.Reported(m) < cutoff {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reported(m) < out[j].Reported(m) })
	return out
}
