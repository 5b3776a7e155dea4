package geneset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrResourceNotFound is returned when a selected collection is absent.
var ErrResourceNotFound = errors.New("resource not found")

// Names lists the built-in collections: pathways, gene ontology, phenotype and disease.
var Names = []string{
	"biocarta", "kegg", "reactome",
	"gobp", "gomf", "gocc",
	"hpo",
	"malacards",
}

// IsName reports whether name is a built-in collection.
func IsName(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Catalog locates built-in collections in a resource directory laid out as
// <dir>/collections/<species>/<collection>.json, where species is the
// organism prefix (hsa for hsa_hg19).
type Catalog struct {
	dir    string
	logger *zap.Logger
}

// NewCatalog returns a catalog rooted at dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, logger: zap.NewNop()}
}

// SetLogger sets the logger for info messages.
func (c *Catalog) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Species returns the species part of an organism identifier.
func Species(organism string) string {
	if i := strings.IndexByte(organism, '_'); i >= 0 {
		return organism[:i]
	}
	return organism
}

// Path returns the JSON file of a built-in collection for organism.
func (c *Catalog) Path(organism, name string) string {
	return filepath.Join(c.dir, "collections", Species(organism), name+".json")
}

// Load returns the selected built-in collections of organism followed by the
// collection in extraFile, if given. Every built-in collection present on
// disk contributes to the universe, selected or not; the universe size is
// stored on each returned collection. A selected collection that is absent
// is an ErrResourceNotFound.
func (c *Catalog) Load(organism string, selected []string, extraFile string) ([]*Collection, error) {
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		if !IsName(name) {
			return nil, fmt.Errorf("unknown collection %q (want one of %s)", name, strings.Join(Names, ", "))
		}
		want[name] = true
	}

	var all, colls []*Collection
	if organism != "" {
		for _, name := range Names {
			p := c.Path(organism, name)
			coll, err := LoadFile(p)
			if err != nil {
				if errors.Is(err, ErrResourceNotFound) && !want[name] {
					continue
				}
				return nil, err
			}
			if coll.ID == "" {
				coll.ID = name
			}
			all = append(all, coll)
			if want[name] {
				colls = append(colls, coll)
			}
		}
	} else if len(selected) > 0 {
		return nil, fmt.Errorf("built-in collections %v need an organism: %w", selected, ErrResourceNotFound)
	}

	if extraFile != "" {
		coll, err := LoadFile(extraFile)
		if err != nil {
			return nil, err
		}
		all = append(all, coll)
		colls = append(colls, coll)
	}

	universe := UniverseSize(all)
	for _, coll := range colls {
		coll.UniverseSize = universe
	}

	c.logger.Info("loaded gene set collections",
		zap.Int("collections", len(colls)),
		zap.Int("universe", universe))

	return colls, nil
}
