package signal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultScoreColumn is the 0-based column holding the score in BED-like rows.
const DefaultScoreColumn = 4

// minBEDFields is the narrowest BED-like row: chrom, start, end, name,
// score and strand.
const minBEDFields = 6

// Record is one parsed signal row.
// Gene is set for two-column rows; Chrom/Start/End for BED-like rows.
type Record struct {
	Gene  string
	Chrom string
	Start int
	End   int
	Score float64
}

// IsInterval reports whether the record must be resolved through a coordinate index.
func (r Record) IsInterval() bool {
	return r.Gene == ""
}

// ParseError describes a malformed row.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parser reads signal records from whitespace separated text.
// Lines beginning with "#", "browser" or "track" are ignored.
type Parser struct {
	scanner     *bufio.Scanner
	scoreColumn int
	lineNumber  int
	skipped     []*ParseError
}

// NewParser creates a parser reading from r with the score at scoreColumn
// (0-based) for BED-like rows.
func NewParser(r io.Reader, scoreColumn int) *Parser {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Parser{scanner: scanner, scoreColumn: scoreColumn}
}

// Next returns the next well-formed record. Malformed rows are skipped and
// recorded; see Skipped. Returns nil, nil at end of input.
func (p *Parser) Next() (*Record, error) {
	for p.scanner.Scan() {
		p.lineNumber++
		line := p.scanner.Text()

		if isIgnored(line) {
			continue
		}

		rec, perr := p.parseLine(line)
		if perr != nil {
			p.skipped = append(p.skipped, perr)
			continue
		}
		return rec, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", p.lineNumber+1, err)
	}
	return nil, nil
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Skipped returns the malformed rows encountered so far.
func (p *Parser) Skipped() []*ParseError {
	return p.skipped
}

func isIgnored(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "browser") ||
		strings.HasPrefix(line, "track")
}

func (p *Parser) parseLine(line string) (*Record, *ParseError) {
	fields := strings.Fields(line)

	if len(fields) == 2 {
		score, err := parseScore(fields[1])
		if err != nil {
			return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid score %q", fields[1])}
		}
		return &Record{Gene: fields[0], Score: score}, nil
	}

	if len(fields) < minBEDFields || len(fields) <= p.scoreColumn {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("unexpected column count %d", len(fields))}
	}

	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid start %q", fields[1])}
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid end %q", fields[2])}
	}
	score, err := parseScore(fields[p.scoreColumn])
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid score %q", fields[p.scoreColumn])}
	}

	return &Record{Chrom: fields[0], Start: start, End: end, Score: score}, nil
}

// parseScore accepts finite numbers only.
func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite score %q", s)
	}
	return v, nil
}
