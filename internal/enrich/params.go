// Package enrich tests gene sets for enrichment against a gene score table.
package enrich

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid enrichment parameters")

// Method selects which enrichment tests run.
type Method int

const (
	// GSE is the permutation based gene set enrichment test.
	GSE Method = iota
	// FE is the functional enrichment (Fisher exact) test.
	FE
	// Both runs both tests and combines their p-values.
	Both
)

var methodNames = [...]string{GSE: "gse", FE: "fe", Both: "both"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod parses gse, fe or both.
func ParseMethod(s string) (Method, error) {
	for m, n := range methodNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("unknown enrichment method %q (want gse, fe or both)", s)
}

// Permutation reports whether m runs the permutation test.
func (m Method) Permutation() bool { return m == GSE || m == Both }

// Functional reports whether m runs the Fisher exact test.
func (m Method) Functional() bool { return m == FE || m == Both }

// Operator is the direction in which the overlap median must differ from
// the random sample median.
type Operator int

const (
	Greater Operator = iota
	Less
)

func (o Operator) String() string {
	switch o {
	case Greater:
		return "greater"
	case Less:
		return "less"
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// ParseOperator parses greater or less. The symbols > and < are accepted too.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greater", "gt", ">":
		return Greater, nil
	case "less", "lt", "<":
		return Less, nil
	}
	return 0, fmt.Errorf("unknown operator %q (want greater or less)", s)
}

// Holds reports whether a op b.
func (o Operator) Holds(a, b float64) bool {
	if o == Less {
		return a < b
	}
	return a > b
}

// Params holds the cutoffs shared by every job of a run.
type Params struct {
	Method             Method
	Operator           Operator
	SignificanceCutoff float64 // per-iteration rank test cutoff
	Iterations         int
	GeneSetCutoff      int // gene sets larger than this are skipped
	OverlapCutoff      int // gene sets with a smaller overlap are skipped
	Seed               int64
}

// DefaultParams returns the default cutoffs. Seed 0 asks the caller to pick
// one from the clock.
func DefaultParams() Params {
	return Params{
		Method:             GSE,
		Operator:           Greater,
		SignificanceCutoff: 0.05,
		Iterations:         1000,
		GeneSetCutoff:      350,
		OverlapCutoff:      5,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.Method < GSE || p.Method > Both:
		return fmt.Errorf("%w: method %d", ErrInvalidParams, int(p.Method))
	case p.Operator != Greater && p.Operator != Less:
		return fmt.Errorf("%w: operator %d", ErrInvalidParams, int(p.Operator))
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidParams, p.Iterations)
	case p.SignificanceCutoff <= 0 || p.SignificanceCutoff > 1:
		return fmt.Errorf("%w: significance cutoff %g outside (0, 1]", ErrInvalidParams, p.SignificanceCutoff)
	case p.GeneSetCutoff < 1:
		return fmt.Errorf("%w: gene set cutoff must be positive, got %d", ErrInvalidParams, p.GeneSetCutoff)
	case p.OverlapCutoff < 0:
		return fmt.Errorf("%w: overlap cutoff must not be negative, got %d", ErrInvalidParams, p.OverlapCutoff)
	}
	return nil
}
