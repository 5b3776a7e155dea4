package geneset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gungorbudak/seten-cli/internal/compress"
)

// ReadGMT parses a GMT file: tab-separated rows of name, description and
// member genes. The description column is ignored.
func ReadGMT(r io.Reader, id, name string) (*Collection, error) {
	c := &Collection{ID: id, Name: name, Organism: "NA"}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if cols[0] == "" {
			continue
		}
		var genes []string
		if len(cols) > 2 {
			genes = cols[2:]
		}
		for i := range genes {
			genes[i] = strings.TrimSpace(genes[i])
		}
		c.GeneSets = append(c.GeneSets, New("NA", cols[0], genes))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gmt: %w", err)
	}
	return c, nil
}

// jsonCollection is the on-disk JSON layout of a collection.
type jsonCollection struct {
	CollectionID string        `json:"collectionId"`
	Collection   string        `json:"collection"`
	GeneSets     []jsonGeneSet `json:"geneSets"`
	OrganismID   string        `json:"organismId"`
	Size         int           `json:"size"`
}

type jsonGeneSet struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Genes []string `json:"genes"`
	Size  int      `json:"size"`
}

// ReadJSON parses a JSON collection. Gene set sizes are recomputed from the
// distinct member genes.
func ReadJSON(r io.Reader) (*Collection, error) {
	var jc jsonCollection
	if err := json.NewDecoder(r).Decode(&jc); err != nil {
		return nil, fmt.Errorf("decode collection json: %w", err)
	}

	c := &Collection{
		ID:       jc.CollectionID,
		Name:     jc.Collection,
		Organism: jc.OrganismID,
		GeneSets: make([]*GeneSet, 0, len(jc.GeneSets)),
	}
	for _, gs := range jc.GeneSets {
		c.GeneSets = append(c.GeneSets, New(gs.ID, gs.Name, gs.Genes))
	}
	return c, nil
}

// LoadFile reads a collection file, choosing the JSON reader for .json
// files and the GMT reader otherwise. GMT collections are identified by
// the file's base name.
func LoadFile(path string) (*Collection, error) {
	rc, err := compress.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("collection %s: %w", path, ErrResourceNotFound)
		}
		return nil, fmt.Errorf("open collection file: %w", err)
	}
	defer rc.Close()

	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".json") {
		c, err := ReadJSON(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return c, nil
	}

	id := strings.TrimSuffix(base, ext)
	c, err := ReadGMT(rc, id, "Given Collection")
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}
