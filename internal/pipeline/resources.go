package pipeline

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gungorbudak/seten-cli/internal/duckdb"
	"github.com/gungorbudak/seten-cli/internal/geneset"
	"github.com/gungorbudak/seten-cli/internal/mapping"
)

// Resources selects the coordinate mapping and gene set collections of a run.
type Resources struct {
	Dir            string   // resource directory with mappings/ and collections/
	Organism       string   // built-in organism, e.g. hsa_hg19
	MappingFile    string   // explicit mapping file, replaces the organism mapping only
	Collections    []string // built-in collection names
	CollectionFile string   // extra GMT or JSON collection
	NoIndex        bool     // datasets are gene and score pairs only
}

// Load builds the coordinate index and loads the collections. The mapping
// is cached under <dir>/cache. A missing selected resource is an
// ErrResourceNotFound from the mapping or geneset package.
func (res Resources) Load(logger *zap.Logger) (*mapping.Index, []*geneset.Collection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var idx *mapping.Index
	if !res.NoIndex {
		path, name := res.MappingFile, res.Organism
		if path == "" {
			p, err := mapping.NewResources(res.Dir).Path(res.Organism)
			if err != nil {
				return nil, nil, err
			}
			path = p
		} else {
			name = "custom-" + filepath.Base(path)
		}

		var err error
		idx, err = duckdb.NewMappingCache(filepath.Join(res.Dir, "cache")).LoadIndex(name, path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("loaded coordinate mapping",
			zap.String("file", path),
			zap.Int("intervals", idx.Len()),
			zap.Int("chromosomes", len(idx.Chromosomes())))
	}

	cat := geneset.NewCatalog(res.Dir)
	cat.SetLogger(logger)
	colls, err := cat.Load(res.Organism, res.Collections, res.CollectionFile)
	if err != nil {
		return nil, nil, err
	}
	return idx, colls, nil
}

// IsNotFound reports whether err is a missing resource error.
func IsNotFound(err error) bool {
	return errors.Is(err, mapping.ErrResourceNotFound) || errors.Is(err, geneset.ErrResourceNotFound)
}
