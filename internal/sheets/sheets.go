// Package sheets provides the tabular datastore backends for SchoolBot.
//
// The external record store is spreadsheet-shaped: named sheets addressed by
// 1-based row and column ordinals. This package exposes that surface through
// the Store interface and implements it over SQLite and PostgreSQL, plus an
// in-memory variant for tests.
package sheets

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"
)

// Store is the narrow boundary to the tabular datastore.
type Store interface {
	// FindRow returns the 1-based index of the first row whose cell in the
	// given key column equals key. Returns models.ErrNotFound when absent.
	FindRow(ctx context.Context, sheet string, keyCol int, key string) (int, error)

	// ReadRow returns the ordered cell values of a row. Columns with no
	// stored value are returned as empty strings up to the widest stored
	// column of that row.
	ReadRow(ctx context.Context, sheet string, row int) ([]string, error)

	// WriteCell sets a single cell value, creating it if absent.
	WriteCell(ctx context.Context, sheet string, row, col int, value string) error

	// Close releases the underlying connection.
	Close() error
}

// Opts holds configuration options for sheet store backends.
type Opts struct {
	DSN     string        // database connection string
	Timeout time.Duration // per-call timeout applied to datastore queries
}

// Option defines a configuration option for a sheet store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithTimeout sets the per-call timeout for datastore queries.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// DefaultQueryTimeout bounds each datastore call so an unreachable backend
// surfaces as a recoverable timeout instead of a hung dialogue.
const DefaultQueryTimeout = 60 * time.Second

// DetectDSNType inspects a DSN and reports "postgres" or "sqlite".
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// isTimeoutErr reports whether the error chain indicates an unreachable or
// timed-out backend rather than a data-level failure.
func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
