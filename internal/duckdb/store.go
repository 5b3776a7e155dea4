// Package duckdb stores enrichment results in DuckDB and caches parsed
// coordinate mappings as gob files.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding enrichment runs and results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP,
			organism VARCHAR,
			enr_method VARCHAR,
			scr_method VARCHAR,
			corr_method VARCHAR,
			iterations BIGINT,
			seed BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS datasets (
			run_id VARCHAR,
			dataset VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			genes BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS enrichment_results (
			run_id VARCHAR,
			dataset VARCHAR,
			collection VARCHAR,
			gene_set_id VARCHAR,
			name VARCHAR,
			genes VARCHAR,
			overlap_size BIGINT,
			gene_set_size BIGINT,
			percent DOUBLE,
			gse_pvalue DOUBLE,
			fe_pvalue DOUBLE,
			fe_pvalue_corrected DOUBLE,
			rejected BOOLEAN,
			combined_pvalue DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
