package geneset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CollapsesDuplicates(t *testing.T) {
	gs := New("GS1", "set one", []string{"TP53", "EGFR", "TP53", "", "MYC"})
	assert.Equal(t, 3, gs.Size())
	assert.Equal(t, []string{"EGFR", "MYC", "TP53"}, gs.Genes())
	assert.True(t, gs.Has("MYC"))
	assert.False(t, gs.Has("KRAS"))
}

func TestGeneSet_Overlap(t *testing.T) {
	gs := New("GS1", "set one", []string{"D", "B", "A", "C"})
	scored := map[string]bool{"A": true, "C": true, "Z": true}

	got := gs.Overlap(func(g string) bool { return scored[g] })
	assert.Equal(t, []string{"A", "C"}, got)

	assert.Empty(t, gs.Overlap(func(string) bool { return false }))
}

func TestReadGMT(t *testing.T) {
	input := "PATH_A\thttp://example.org/a\tG1\tG2\tG3\n" +
		"\n" +
		"PATH_B\tdesc\tG3\tG4\tG4\n" +
		"PATH_EMPTY\tdesc\n"

	c, err := ReadGMT(strings.NewReader(input), "mine", "Given Collection")
	require.NoError(t, err)

	assert.Equal(t, "mine", c.ID)
	require.Len(t, c.GeneSets, 3)
	assert.Equal(t, "PATH_A", c.GeneSets[0].Name)
	assert.Equal(t, 3, c.GeneSets[0].Size())
	assert.Equal(t, 2, c.GeneSets[1].Size())
	assert.Equal(t, 0, c.GeneSets[2].Size())
	assert.Equal(t, 4, c.Genes().Size())
}

const keggJSON = `{
  "collectionId": "kegg",
  "collection": "KEGG",
  "organismId": "hsa",
  "size": 2,
  "geneSets": [
    {"id": "hsa00010", "name": "Glycolysis", "genes": ["HK1", "HK2", "PFKM"], "size": 3},
    {"id": "hsa04110", "name": "Cell cycle", "genes": ["TP53", "CDK1", "TP53"], "size": 3}
  ]
}`

func TestReadJSON(t *testing.T) {
	c, err := ReadJSON(strings.NewReader(keggJSON))
	require.NoError(t, err)

	assert.Equal(t, "kegg", c.ID)
	assert.Equal(t, "KEGG", c.Name)
	assert.Equal(t, "hsa", c.Organism)
	require.Len(t, c.GeneSets, 2)
	assert.Equal(t, "hsa04110", c.GeneSets[1].ID)
	assert.Equal(t, 2, c.GeneSets[1].Size(), "size is recomputed from distinct genes")
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestSpecies(t *testing.T) {
	assert.Equal(t, "hsa", Species("hsa_hg19"))
	assert.Equal(t, "mmu", Species("mmu_mm10"))
	assert.Equal(t, "custom", Species("custom"))
}

func writeCollection(t *testing.T, dir, species, name, body string) {
	t.Helper()
	p := filepath.Join(dir, "collections", species)
	require.NoError(t, os.MkdirAll(p, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(p, name+".json"), []byte(body), 0644))
}

func TestCatalog_Load(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "hsa", "kegg", keggJSON)
	writeCollection(t, dir, "hsa", "gobp", `{"collectionId":"gobp","collection":"GO BP","organismId":"hsa",
		"geneSets":[{"id":"GO:1","name":"proc","genes":["HK1","NEW1","NEW2"]}]}`)

	cat := NewCatalog(dir)
	assert.Equal(t, filepath.Join(dir, "collections", "hsa", "kegg.json"), cat.Path("hsa_hg19", "kegg"))

	colls, err := cat.Load("hsa_hg19", []string{"kegg"}, "")
	require.NoError(t, err)
	require.Len(t, colls, 1)
	assert.Equal(t, "kegg", colls[0].ID)
	// HK1 HK2 PFKM TP53 CDK1 from kegg, NEW1 NEW2 from the unselected gobp.
	assert.Equal(t, 7, colls[0].UniverseSize)
}

func TestCatalog_LoadWithExtraFile(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "hsa", "kegg", keggJSON)
	gmt := filepath.Join(dir, "custom.gmt")
	require.NoError(t, os.WriteFile(gmt, []byte("MINE\tdesc\tHK1\tX1\n"), 0644))

	colls, err := NewCatalog(dir).Load("hsa_hg19", []string{"kegg"}, gmt)
	require.NoError(t, err)
	require.Len(t, colls, 2)
	assert.Equal(t, "custom", colls[1].ID)
	assert.Equal(t, 6, colls[0].UniverseSize)
	assert.Equal(t, 6, colls[1].UniverseSize)
}

func TestCatalog_MissingSelected(t *testing.T) {
	dir := t.TempDir()
	writeCollection(t, dir, "hsa", "kegg", keggJSON)

	_, err := NewCatalog(dir).Load("hsa_hg19", []string{"kegg", "reactome"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = NewCatalog(dir).Load("hsa_hg19", nil, filepath.Join(dir, "nope.gmt"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestCatalog_UnknownName(t *testing.T) {
	_, err := NewCatalog(t.TempDir()).Load("hsa_hg19", []string{"wikipathways"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown collection")
}
