// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package warehouse loads processed tables and run history into DuckDB so
// downstream analysis can query every run with SQL.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/models"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Warehouse is a DuckDB database holding the latest processed tables and
// the history of pipeline runs.
type Warehouse struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open opens (creating if needed) the DuckDB file at path. ":memory:" opens
// a private in-memory database.
func Open(ctx context.Context, path string) (*Warehouse, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create warehouse directory %s: %w", dir, err)
			}
		}
	}

	// Extension auto-install is disabled; only built-in functions are used.
	connStr := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}
	conn.SetMaxOpenConns(1)

	w := &Warehouse{conn: conn}
	if err := w.initialize(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize warehouse: %w", err)
	}
	return w, nil
}

func (w *Warehouse) initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			reference_time TIMESTAMP NOT NULL,
			failed BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_datasets (
			run_id VARCHAR NOT NULL,
			dataset VARCHAR NOT NULL,
			auxiliary BOOLEAN NOT NULL,
			status VARCHAR NOT NULL,
			rows_out INTEGER NOT NULL,
			failed_pages INTEGER NOT NULL,
			error VARCHAR,
			PRIMARY KEY (run_id, dataset)
		)`,
	}
	for _, stmt := range statements {
		if _, err := w.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadTable replaces table with the contents of the CSV file at csvPath and
// returns the number of loaded rows.
func (w *Warehouse) LoadTable(ctx context.Context, table, csvPath string) (int64, error) {
	if !tableNamePattern.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	abs, err := filepath.Abs(csvPath)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", csvPath, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	query := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header = true)`,
		table, quoteLiteral(abs))
	if _, err := w.conn.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("load %s: %w", table, err)
	}

	var rows int64
	if err := w.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&rows); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	logging.Debug().Str("table", table).Int64("rows", rows).Msg("Warehouse table loaded")
	return rows, nil
}

// RecordRun appends the outcome of a run to the run history.
func (w *Warehouse) RecordRun(ctx context.Context, summary *models.RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, reference_time, failed) VALUES (?, ?, ?, ?, ?)`,
		summary.RunID, summary.StartedAt, summary.FinishedAt, summary.Reference, summary.Failed(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, ds := range summary.Datasets {
		rowsOut := 0
		if n := len(ds.Stages); n > 0 {
			rowsOut = ds.Stages[n-1].RowsOut
		}
		var errText sql.NullString
		if ds.Error != "" {
			errText = sql.NullString{String: ds.Error, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_datasets (run_id, dataset, auxiliary, status, rows_out, failed_pages, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, ds.Name, ds.Auxiliary, ds.Status, rowsOut, len(ds.Fetch.FailedPages), errText,
		); err != nil {
			return fmt.Errorf("insert run dataset %s: %w", ds.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run record: %w", err)
	}
	return nil
}

// QueryRowContext exposes read queries for reporting and tests.
func (w *Warehouse) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return w.conn.QueryRowContext(ctx, query, args...)
}

// Close closes the database.
func (w *Warehouse) Close() error {
	return w.conn.Close()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
