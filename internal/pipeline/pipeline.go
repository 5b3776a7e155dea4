// Package pipeline runs gene set enrichment over datasets and collections.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gungorbudak/seten-cli/internal/compress"
	"github.com/gungorbudak/seten-cli/internal/duckdb"
	"github.com/gungorbudak/seten-cli/internal/enrich"
	"github.com/gungorbudak/seten-cli/internal/geneset"
	"github.com/gungorbudak/seten-cli/internal/mapping"
	"github.com/gungorbudak/seten-cli/internal/output"
	"github.com/gungorbudak/seten-cli/internal/signal"
	"github.com/gungorbudak/seten-cli/internal/stats"
)

// Config holds the options of one run.
type Config struct {
	ScoreMethod  signal.Method
	ScoreColumn  int
	Correction   stats.Correction
	Params       enrich.Params
	PValueCutoff float64 // output cutoff, also the correction level
	Workers      int
	OutDir       string
	Compression  compress.Kind
	Organism     string // recorded with the run
	ClockSeed    bool   // replace Params.Seed with one taken from the clock
}

// Report summarizes one dataset and collection pair.
type Report struct {
	Dataset     string
	Collection  string
	Tested      int
	Significant int
	Path        string // empty when nothing was significant
	Elapsed     time.Duration
}

// Runner runs the enrichment of datasets against loaded collections.
type Runner struct {
	cfg    Config
	loc    signal.Locator
	colls  []*geneset.Collection
	store  *duckdb.Store
	runID  string
	logger *zap.Logger
}

// New creates a runner. index may be nil when every dataset holds gene and
// score pairs.
func New(cfg Config, index *mapping.Index, colls []*geneset.Collection) (*Runner, error) {
	if cfg.ClockSeed {
		cfg.Params.Seed = time.Now().UnixNano()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.ScoreColumn < 0 {
		return nil, fmt.Errorf("score column must not be negative, got %d", cfg.ScoreColumn)
	}

	r := &Runner{
		cfg:    cfg,
		colls:  colls,
		runID:  fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102T150405"), cfg.Params.Seed),
		logger: zap.NewNop(),
	}
	if index != nil {
		r.loc = index
	}
	return r, nil
}

// SetLogger sets the logger for progress and timing messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// SetStore makes the runner record every tested result in s.
func (r *Runner) SetStore(s *duckdb.Store) {
	r.store = s
}

// Seed returns the seed in effect.
func (r *Runner) Seed() int64 {
	return r.cfg.Params.Seed
}

// RunID identifies the run in the result store.
func (r *Runner) RunID() string {
	return r.runID
}

// Run processes each dataset path against every collection in order.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Report, error) {
	start := time.Now()
	r.logger.Info("starting enrichment run",
		zap.String("run_id", r.runID),
		zap.String("method", r.cfg.Params.Method.String()),
		zap.Int64("seed", r.cfg.Params.Seed),
		zap.Int("workers", enrich.PoolSize(r.cfg.Workers)),
		zap.Int("datasets", len(paths)),
		zap.Int("collections", len(r.colls)))

	if r.store != nil {
		if err := r.store.RecordRun(duckdb.Run{
			ID:               r.runID,
			StartedAt:        start,
			Organism:         r.cfg.Organism,
			EnrichmentMethod: r.cfg.Params.Method.String(),
			ScoreMethod:      r.cfg.ScoreMethod.String(),
			CorrectionMethod: r.cfg.Correction.String(),
			Iterations:       r.cfg.Params.Iterations,
			Seed:             r.cfg.Params.Seed,
		}); err != nil {
			return nil, err
		}
	}

	var reports []Report
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := r.RunDataset(ctx, path)
		reports = append(reports, rep...)
		if err != nil {
			return reports, err
		}
	}

	r.logger.Info("took", zap.Duration("elapsed", time.Since(start)))
	return reports, nil
}

// RunDataset scores one dataset and tests it against every collection.
func (r *Runner) RunDataset(ctx context.Context, path string) ([]Report, error) {
	table, err := signal.CollectFile(path, r.loc, r.cfg.ScoreMethod, r.cfg.ScoreColumn, r.logger)
	if err != nil {
		return nil, err
	}
	dataset := output.DatasetName(path)
	r.logger.Info("unique genes found", zap.Int("genes", table.Len()), zap.String("dataset", path))

	if r.store != nil {
		fp, err := duckdb.StatFile(path)
		if err != nil {
			return nil, fmt.Errorf("stat dataset: %w", err)
		}
		if err := r.store.RecordDataset(r.runID, dataset, fp, table.Len()); err != nil {
			return nil, err
		}
	}

	var reports []Report
	for _, coll := range r.colls {
		start := time.Now()

		results, err := r.Enrich(ctx, table, coll)
		if err != nil {
			return reports, fmt.Errorf("%s on %s: %w", coll.ID, dataset, err)
		}

		rep := Report{Dataset: dataset, Collection: coll.ID, Tested: len(results)}
		sig := output.Significant(results, r.cfg.Params.Method, r.cfg.PValueCutoff)
		rep.Significant = len(sig)

		outPath := output.ResultPath(r.cfg.OutDir, dataset, coll.ID, r.cfg.Params.Method, r.cfg.Compression)
		written, err := output.WriteFile(outPath, sig, r.cfg.Params.Method, r.cfg.Compression)
		if err != nil {
			return reports, err
		}
		if written {
			rep.Path = outPath
		}

		if r.store != nil {
			if err := r.store.WriteResults(r.runID, dataset, coll.ID, results); err != nil {
				return reports, err
			}
		}

		rep.Elapsed = time.Since(start)
		r.logger.Info("completed",
			zap.String("dataset", dataset),
			zap.String("collection", coll.ID),
			zap.Int("tested", rep.Tested),
			zap.Int("significant", rep.Significant),
			zap.String("output", rep.Path),
			zap.Duration("elapsed", rep.Elapsed))
		reports = append(reports, rep)
	}
	return reports, nil
}

// Enrich tests every gene set of coll against table, then corrects the
// functional p-values of the batch and combines them with the permutation
// p-values as the method requires.
func (r *Runner) Enrich(ctx context.Context, table *signal.Table, coll *geneset.Collection) ([]*enrich.Result, error) {
	params := r.cfg.Params
	jobs := enrich.NewJobs(coll, table, &params)
	r.logger.Debug("dispatching gene sets",
		zap.String("collection", coll.ID),
		zap.Int("jobs", len(jobs)),
		zap.Int("skipped", len(coll.GeneSets)-len(jobs)))

	results, err := enrich.Dispatch(ctx, jobs, r.cfg.Workers)
	if err != nil {
		return nil, err
	}

	if params.Method.Functional() {
		enrich.Correct(results, r.cfg.Correction, r.cfg.PValueCutoff)
	}
	if params.Method == enrich.Both {
		enrich.Combine(results)
	}
	return results, nil
}

// DatasetPaths expands path into the dataset files to process: the path
// itself, or the regular files of a directory in name order.
func DatasetPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
