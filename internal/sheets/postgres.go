// Package sheets provides the tabular datastore backends for SchoolBot.
//
// This file implements the PostgreSQL-backed sheet store.
package sheets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/edusuite/schoolbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements Store over a PostgreSQL database.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresStore creates a new Postgres sheet store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultQueryTimeout
	}
	return &PostgresStore{db: db, timeout: timeout}, nil
}

// FindRow returns the first row whose key column matches key.
func (s *PostgresStore) FindRow(ctx context.Context, sheet string, keyCol int, key string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row int
	err := s.db.QueryRowContext(ctx,
		`SELECT row_idx FROM sheet_cells WHERE sheet = $1 AND col_idx = $2 AND value = $3 ORDER BY row_idx LIMIT 1`,
		sheet, keyCol, key).Scan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("PostgresStore FindRow no match", "sheet", sheet, "keyCol", keyCol)
		return 0, models.ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore FindRow query failed", "error", err, "sheet", sheet)
		if isTimeoutErr(err) {
			return 0, fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return 0, fmt.Errorf("failed to find row in %s: %w", sheet, err)
	}
	slog.Debug("PostgresStore FindRow succeeded", "sheet", sheet, "row", row)
	return row, nil
}

// ReadRow returns the ordered cell values of a row.
func (s *PostgresStore) ReadRow(ctx context.Context, sheet string, row int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT col_idx, value FROM sheet_cells WHERE sheet = $1 AND row_idx = $2 ORDER BY col_idx`,
		sheet, row)
	if err != nil {
		slog.Error("PostgresStore ReadRow query failed", "error", err, "sheet", sheet, "row", row)
		if isTimeoutErr(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return nil, fmt.Errorf("failed to read row %d of %s: %w", row, sheet, err)
	}
	defer rows.Close()

	cells := collectCells(rows, &err)
	if err != nil {
		slog.Error("PostgresStore ReadRow scan failed", "error", err, "sheet", sheet, "row", row)
		return nil, fmt.Errorf("failed to scan row %d of %s: %w", row, sheet, err)
	}
	if cells == nil {
		slog.Debug("PostgresStore ReadRow empty", "sheet", sheet, "row", row)
		return nil, models.ErrNotFound
	}
	slog.Debug("PostgresStore ReadRow succeeded", "sheet", sheet, "row", row, "cols", len(cells))
	return cells, nil
}

// WriteCell upserts a single cell value.
func (s *PostgresStore) WriteCell(ctx context.Context, sheet string, row, col int, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_cells (sheet, row_idx, col_idx, value) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sheet, row_idx, col_idx) DO UPDATE SET value = EXCLUDED.value`,
		sheet, row, col, value)
	if err != nil {
		slog.Error("PostgresStore WriteCell failed", "error", err, "sheet", sheet, "row", row, "col", col)
		if isTimeoutErr(err) {
			return fmt.Errorf("%w: %v", models.ErrTransportTimeout, err)
		}
		return fmt.Errorf("failed to write cell (%d,%d) of %s: %w", row, col, sheet, err)
	}
	slog.Debug("PostgresStore WriteCell succeeded", "sheet", sheet, "row", row, "col", col)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres sheet store")
	return s.db.Close()
}
