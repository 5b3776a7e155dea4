package mapping

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"

	"github.com/gungorbudak/seten-cli/internal/compress"
)

// ErrResourceNotFound is returned when a required mapping resource is absent.
var ErrResourceNotFound = errors.New("resource not found")

// jsonEntry accepts both the current and the legacy key names.
type jsonEntry struct {
	Chromosome string          `json:"chromosome"`
	ChrName    string          `json:"chrName"`
	Start      json.RawMessage `json:"start"`
	End        json.RawMessage `json:"end"`
	Symbol     string          `json:"symbol"`
	HGNCSymbol string          `json:"hgncSymbol"`
}

// biomartRow is one row of a BioMart chromosome/position/symbol export.
type biomartRow struct {
	Chrom  string `csv:"chromosome_name"`
	Start  string `csv:"start_position"`
	End    string `csv:"end_position"`
	Symbol string `csv:"hgnc_symbol"`
}

// LoadMapping reads mapping entries from a plain or gzipped file.
func LoadMapping(path string) ([]Entry, error) {
	rc, err := compress.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("mapping %s: %w", path, ErrResourceNotFound)
		}
		return nil, fmt.Errorf("open mapping file: %w", err)
	}
	defer rc.Close()

	entries, err := ReadMapping(rc)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	return entries, nil
}

// ReadMapping detects the mapping format and parses it. Supported formats are
// a JSON array of {chromosome, start, end, symbol}, a delimited table with a
// chromosome_name/start_position/end_position/hgnc_symbol header, and a
// headerless tab-separated 4-column file. Rows that cannot be parsed are skipped.
func ReadMapping(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		return parseJSON(trimmed)
	}

	firstLine := trimmed
	if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
		firstLine = trimmed[:i]
	}
	if bytes.Contains(firstLine, []byte("chromosome_name")) {
		return parseBiomart(trimmed)
	}
	return parseTSV(trimmed)
}

func parseJSON(data []byte) ([]Entry, error) {
	var raw []jsonEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		chrom := r.Chromosome
		if chrom == "" {
			chrom = r.ChrName
		}
		symbol := r.Symbol
		if symbol == "" {
			symbol = r.HGNCSymbol
		}
		start, err1 := jsonInt(r.Start)
		end, err2 := jsonInt(r.End)
		if chrom == "" || symbol == "" || err1 != nil || err2 != nil {
			continue
		}
		entries = append(entries, Entry{Chrom: chrom, Start: start, End: end, Symbol: symbol})
	}
	return entries, nil
}

// jsonInt accepts positions encoded either as numbers or as strings.
func jsonInt(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseBiomart(data []byte) ([]Entry, error) {
	delim := detectDelimiter(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var rows []*biomartRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("decode mapping table: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if e, ok := toEntry(row.Chrom, row.Start, row.End, row.Symbol); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// detectDelimiter picks the delimiter of a header table, preferring tabs.
func detectDelimiter(data []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(data), '"')
	for _, c := range delimiters {
		if c == "\t" {
			return '\t'
		}
	}
	if len(delimiters) > 0 && len(delimiters[0]) == 1 {
		return rune(delimiters[0][0])
	}
	if bytes.ContainsRune(data, '\t') {
		return '\t'
	}
	return ','
}

func parseTSV(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}
		if e, ok := toEntry(fields[0], fields[1], fields[2], fields[3]); ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan mapping: %w", err)
	}
	return entries, nil
}

func toEntry(chrom, start, end, symbol string) (Entry, bool) {
	chrom = strings.TrimSpace(chrom)
	symbol = strings.TrimSpace(symbol)
	if chrom == "" || symbol == "" {
		return Entry{}, false
	}
	s, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return Entry{}, false
	}
	e, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return Entry{}, false
	}
	return Entry{Chrom: chrom, Start: s, End: e, Symbol: symbol}, true
}

// Resources locates mapping files in a resource directory laid out as
// <dir>/mappings/<organism>.{json,tsv}[.gz].
type Resources struct {
	dir string
}

// NewResources returns a resolver rooted at dir.
func NewResources(dir string) *Resources {
	return &Resources{dir: dir}
}

// Dir returns the mapping directory.
func (r *Resources) Dir() string {
	return filepath.Join(r.dir, "mappings")
}

// Path returns the first existing mapping file for organism.
func (r *Resources) Path(organism string) (string, error) {
	for _, ext := range []string{".json", ".tsv", ".json.gz", ".tsv.gz"} {
		p := filepath.Join(r.Dir(), organism+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("mapping for organism %s in %s: %w", organism, r.Dir(), ErrResourceNotFound)
}

// LoadIndex resolves, reads and indexes the mapping for organism.
func (r *Resources) LoadIndex(organism string) (*Index, error) {
	p, err := r.Path(organism)
	if err != nil {
		return nil, err
	}
	return LoadIndexFile(p)
}

// LoadIndexFile reads and indexes an explicit mapping file.
func LoadIndexFile(path string) (*Index, error) {
	entries, err := LoadMapping(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries)
}
