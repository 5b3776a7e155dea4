package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/gungorbudak/seten-cli/internal/enrich"
)

// Run describes one invocation of the enrichment pipeline.
type Run struct {
	ID               string
	StartedAt        time.Time
	Organism         string
	EnrichmentMethod string
	ScoreMethod      string
	CorrectionMethod string
	Iterations       int
	Seed             int64
}

// RecordRun inserts the run row.
func (s *Store) RecordRun(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC(), r.Organism, r.EnrichmentMethod, r.ScoreMethod,
		r.CorrectionMethod, int64(r.Iterations), r.Seed)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// LookupRun returns the run with the given id.
func (s *Store) LookupRun(id string) (*Run, error) {
	var r Run
	var iters int64
	err := s.db.QueryRow(`SELECT run_id, started_at, organism, enr_method, scr_method,
		corr_method, iterations, seed FROM runs WHERE run_id=?`, id).Scan(
		&r.ID, &r.StartedAt, &r.Organism, &r.EnrichmentMethod, &r.ScoreMethod,
		&r.CorrectionMethod, &iters, &r.Seed)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	r.Iterations = int(iters)
	return &r, nil
}

// RecordDataset records which file a dataset of the run was read from and
// how many genes it scored.
func (s *Store) RecordDataset(runID, dataset string, fp FileFingerprint, genes int) error {
	_, err := s.db.Exec(`INSERT INTO datasets VALUES (?, ?, ?, ?, ?, ?)`,
		runID, dataset, fp.Path, fp.Size, fp.ModTime.UTC(), int64(genes))
	if err != nil {
		return fmt.Errorf("insert dataset %s: %w", dataset, err)
	}
	return nil
}

// WriteResults batch-inserts the results of one dataset and collection using
// the Appender API.
func (s *Store) WriteResults(runID, dataset, collection string, results []*enrich.Result) error {
	if len(results) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "enrichment_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range results {
		if err := appender.AppendRow(
			runID, dataset, collection, r.ID, r.Name,
			strings.Join(r.Genes, ", "),
			int64(r.OverlapSize), int64(r.GeneSetSize), r.Percent,
			r.PermutationPValue, r.FunctionalPValue, r.CorrectedFunctionalPValue,
			r.Rejected, r.CombinedPValue,
		); err != nil {
			return fmt.Errorf("append result %s: %w", r.Name, err)
		}
	}

	return appender.Flush()
}

// LookupResults returns every stored result of a dataset and collection,
// ordered by gene set name.
func (s *Store) LookupResults(dataset, collection string) ([]*enrich.Result, error) {
	rows, err := s.db.Query(`SELECT
		gene_set_id, name, genes, overlap_size, gene_set_size, percent,
		gse_pvalue, fe_pvalue, fe_pvalue_corrected, rejected, combined_pvalue
		FROM enrichment_results
		WHERE dataset=? AND collection=?
		ORDER BY name`, dataset, collection)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*enrich.Result
	for rows.Next() {
		var r enrich.Result
		var genes string
		var overlap, size int64
		if err := rows.Scan(
			&r.ID, &r.Name, &genes, &overlap, &size, &r.Percent,
			&r.PermutationPValue, &r.FunctionalPValue, &r.CorrectedFunctionalPValue,
			&r.Rejected, &r.CombinedPValue,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if genes != "" {
			r.Genes = strings.Split(genes, ", ")
		}
		r.OverlapSize, r.GeneSetSize = int(overlap), int(size)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// ClearResults removes all stored runs, datasets and results.
func (s *Store) ClearResults() error {
	for _, table := range []string{"enrichment_results", "datasets", "runs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
