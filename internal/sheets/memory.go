// Package sheets provides the tabular datastore backends for SchoolBot.
//
// This file implements an in-memory sheet store used in tests.
package sheets

import (
	"context"
	"sync"

	"github.com/edusuite/schoolbot/internal/models"
)

// InMemoryStore is a mutex-guarded sheet store for tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	cells map[string]map[int]map[int]string // sheet -> row -> col -> value
}

// NewInMemoryStore creates an empty in-memory sheet store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cells: make(map[string]map[int]map[int]string)}
}

// LoadRow seeds an entire row at once, columns starting at 1.
func (s *InMemoryStore) LoadRow(sheet string, row int, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range values {
		s.setLocked(sheet, row, i+1, v)
	}
}

func (s *InMemoryStore) setLocked(sheet string, row, col int, value string) {
	if s.cells[sheet] == nil {
		s.cells[sheet] = make(map[int]map[int]string)
	}
	if s.cells[sheet][row] == nil {
		s.cells[sheet][row] = make(map[int]string)
	}
	s.cells[sheet][row][col] = value
}

// FindRow returns the lowest row whose key column matches key.
func (s *InMemoryStore) FindRow(ctx context.Context, sheet string, keyCol int, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := 0
	for row, cols := range s.cells[sheet] {
		if cols[keyCol] == key && (best == 0 || row < best) {
			best = row
		}
	}
	if best == 0 {
		return 0, models.ErrNotFound
	}
	return best, nil
}

// ReadRow returns the ordered cell values of a row.
func (s *InMemoryStore) ReadRow(ctx context.Context, sheet string, row int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols, ok := s.cells[sheet][row]
	if !ok || len(cols) == 0 {
		return nil, models.ErrNotFound
	}
	width := 0
	for col := range cols {
		if col > width {
			width = col
		}
	}
	out := make([]string, width)
	for col, v := range cols {
		out[col-1] = v
	}
	return out, nil
}

// WriteCell sets a single cell value.
func (s *InMemoryStore) WriteCell(ctx context.Context, sheet string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(sheet, row, col, value)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
