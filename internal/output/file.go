package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gungorbudak/seten-cli/internal/compress"
	"github.com/gungorbudak/seten-cli/internal/enrich"
)

// DatasetName returns the base name of a dataset path without its
// extensions, so peaks.bed.gz becomes peaks.
func DatasetName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".lz4"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResultPath returns <dir>/<dataset>/<collection>_<method>.tsv with the
// compression extension appended.
func ResultPath(dir, dataset, collection string, m enrich.Method, kind compress.Kind) string {
	name := fmt.Sprintf("%s_%s.tsv%s", collection, m, kind.Ext())
	return filepath.Join(dir, dataset, name)
}

// WriteFile writes results to path, creating parent directories. Nothing is
// written for an empty result list; the returned bool tells whether a file
// was created.
func WriteFile(path string, results []*enrich.Result, m enrich.Method, kind compress.Kind) (bool, error) {
	if len(results) == 0 {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}

	f, err := compress.Create(path, kind)
	if err != nil {
		return false, err
	}

	tw := NewTabWriter(f, m)
	if err := tw.WriteHeader(); err != nil {
		f.Close()
		return false, fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := tw.Write(r); err != nil {
			f.Close()
			return false, fmt.Errorf("write result %s: %w", r.Name, err)
		}
	}
	if err := tw.Flush(); err != nil {
		f.Close()
		return false, fmt.Errorf("flush results: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	return true, nil
}
