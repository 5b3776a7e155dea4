package mapping

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMapping_JSON(t *testing.T) {
	input := `[
		{"chromosome": "1", "start": 100, "end": 200, "symbol": "GENE_A"},
		{"chrName": "X", "start": "300", "end": "400", "hgncSymbol": "GENE_B"},
		{"chromosome": "2", "start": 1, "end": 2}
	]`
	entries, err := ReadMapping(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Chrom: "1", Start: 100, End: 200, Symbol: "GENE_A"}, entries[0])
	assert.Equal(t, Entry{Chrom: "X", Start: 300, End: 400, Symbol: "GENE_B"}, entries[1])
}

func TestReadMapping_TSV(t *testing.T) {
	input := "1\t100\t200\tGENE_A\n" +
		"# comment\n" +
		"chr2\t300\t400\tGENE_B\n" +
		"3\tabc\t400\tBAD\n" +
		"4\t1\n"
	entries, err := ReadMapping(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "GENE_A", entries[0].Symbol)
	assert.Equal(t, "chr2", entries[1].Chrom)
}

func TestReadMapping_BiomartHeaderTab(t *testing.T) {
	input := "chromosome_name\tstart_position\tend_position\thgnc_symbol\n" +
		"1\t100\t200\tGENE_A\n" +
		"MT\t300\t400\tMT-CO1\n" +
		"2\t300\t400\t\n"
	entries, err := ReadMapping(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Chrom: "MT", Start: 300, End: 400, Symbol: "MT-CO1"}, entries[1])
}

func TestReadMapping_BiomartHeaderComma(t *testing.T) {
	input := "chromosome_name,start_position,end_position,hgnc_symbol\n" +
		"1,100,200,GENE_A\n" +
		"5,500,600,GENE_C\n"
	entries, err := ReadMapping(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Chrom: "5", Start: 500, End: 600, Symbol: "GENE_C"}, entries[1])
}

func TestReadMapping_Empty(t *testing.T) {
	entries, err := ReadMapping(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadMapping_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("1\t100\t200\tGENE_A\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "mapping.tsv.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	idx, err := LoadIndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GENE_A"}, idx.Query("chr1", 150, 150))
}

func TestLoadMapping_NotFound(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestResources_Path(t *testing.T) {
	dir := t.TempDir()
	res := NewResources(dir)

	_, err := res.Path("hsa_hg19")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	require.NoError(t, os.MkdirAll(res.Dir(), 0755))
	p := filepath.Join(res.Dir(), "hsa_hg19.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"chromosome":"1","start":1,"end":10,"symbol":"G"}]`), 0644))

	got, err := res.Path("hsa_hg19")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	idx, err := res.LoadIndex("hsa_hg19")
	require.NoError(t, err)
	assert.Equal(t, []string{"G"}, idx.Query("1", 5, 5))
}

func TestWriteBiomart(t *testing.T) {
	body := "1\t100\t200\tGENE_A\n2\t1\t2\t\n3\t5\t6\tGENE_C\r\n"
	var buf bytes.Buffer
	require.NoError(t, writeBiomart(&buf, strings.NewReader(body)))

	entries, err := ReadMapping(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "GENE_C", entries[1].Symbol)
}

func TestBiomartURL(t *testing.T) {
	u, err := BiomartURL("hsa_hg19")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://grch37.ensembl.org/biomart/martservice?query="))
	assert.Contains(t, u, "hgnc_symbol")

	_, err = BiomartURL("unknown")
	assert.Error(t, err)
	assert.Contains(t, Organisms(), "mmu_mm10")
}
