// Package sheets provides the tabular datastore backends for SchoolBot.
//
// This file implements the SQLite-backed sheet store.
package sheets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/edusuite/schoolbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the permissions for created database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store over a local SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLiteStore creates a new SQLite sheet store with the given options.
// The DSN should be a file path; missing directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultQueryTimeout
	}
	return &SQLiteStore{db: db, timeout: timeout}, nil
}

// FindRow returns the first row whose key column matches key.
func (s *SQLiteStore) FindRow(ctx context.Context, sheet string, keyCol int, key string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row int
	err := s.db.QueryRowContext(ctx,
		`SELECT row_idx FROM sheet_cells WHERE sheet = ? AND col_idx = ? AND value = ? ORDER BY row_idx LIMIT 1`,
		sheet, keyCol, key).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("SQLiteStore FindRow no match", "sheet", sheet, "keyCol", keyCol)
		return 0, models.ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore FindRow query failed", "error", err, "sheet", sheet)
		if isTimeoutErr(err) {
			return 0, fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return 0, fmt.Errorf("failed to find row in %s: %w", sheet, err)
	}
	slog.Debug("SQLiteStore FindRow succeeded", "sheet", sheet, "row", row)
	return row, nil
}

// ReadRow returns the ordered cell values of a row.
func (s *SQLiteStore) ReadRow(ctx context.Context, sheet string, row int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT col_idx, value FROM sheet_cells WHERE sheet = ? AND row_idx = ? ORDER BY col_idx`,
		sheet, row)
	if err != nil {
		slog.Error("SQLiteStore ReadRow query failed", "error", err, "sheet", sheet, "row", row)
		if isTimeoutErr(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return nil, fmt.Errorf("failed to read row %d of %s: %w", row, sheet, err)
	}
	defer rows.Close()

	cells := collectCells(rows, &err)
	if err != nil {
		slog.Error("SQLiteStore ReadRow scan failed", "error", err, "sheet", sheet, "row", row)
		return nil, fmt.Errorf("failed to scan row %d of %s: %w", row, sheet, err)
	}
	if cells == nil {
		slog.Debug("SQLiteStore ReadRow empty", "sheet", sheet, "row", row)
		return nil, models.ErrNotFound
	}
	slog.Debug("SQLiteStore ReadRow succeeded", "sheet", sheet, "row", row, "cols", len(cells))
	return cells, nil
}

// WriteCell upserts a single cell value.
func (s *SQLiteStore) WriteCell(ctx context.Context, sheet string, row, col int, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_cells (sheet, row_idx, col_idx, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (sheet, row_idx, col_idx) DO UPDATE SET value = excluded.value`,
		sheet, row, col, value)
	if err != nil {
		slog.Error("SQLiteStore WriteCell failed", "error", err, "sheet", sheet, "row", row, "col", col)
		if isTimeoutErr(err) {
			return fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return fmt.Errorf("failed to write cell (%d,%d) of %s: %w", row, col, sheet, err)
	}
	slog.Debug("SQLiteStore WriteCell succeeded", "sheet", sheet, "row", row, "col", col)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite sheet store")
	return s.db.Close()
}

// collectCells builds a dense, 1-based cell slice from (col, value) rows.
// Gaps between stored columns come back as empty strings.
func collectCells(rows *sql.Rows, errOut *error) []string {
	var cells []string
	for rows.Next() {
		var col int
		var value string
		if err := rows.Scan(&col, &value); err != nil {
			*errOut = err
			return nil
		}
		for len(cells) < col {
			cells = append(cells, "")
		}
		cells[col-1] = value
	}
	if err := rows.Err(); err != nil {
		*errOut = err
		return nil
	}
	return cells
}
