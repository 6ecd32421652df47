// Package sheets provides the tabular datastore backends for SchoolBot.
//
// This file implements the typed directory layered over the raw cell store.
// It decodes user rows through their declared schemas and owns every write
// the dialogue performs (first-time credential setup, password reset).
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edusuite/schoolbot/internal/models"
)

// Directory resolves user records and feedback entries against the sheet
// store. Writes for the same user id are serialized so concurrent sessions
// cannot interleave partial credential updates.
type Directory struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDirectory creates a Directory over the given sheet store.
func NewDirectory(store Store) *Directory {
	slog.Debug("Creating sheets Directory")
	return &Directory{store: store, locks: make(map[string]*sync.Mutex)}
}

// userLock returns the write lock for a user id, creating it on first use.
func (d *Directory) userLock(id string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[id] = lock
	}
	return lock
}

// LookupUser finds the row for the given id in the role's sheet and decodes
// it through the declared schema. Returns the record and its row index.
func (d *Directory) LookupUser(ctx context.Context, role models.Role, id string) (models.UserRecord, int, error) {
	schema := models.SchemaFor(role)
	row, err := d.store.FindRow(ctx, schema.Sheet, schema.ID, id)
	if err != nil {
		slog.Debug("Directory LookupUser find failed", "error", err, "sheet", schema.Sheet, "id", id)
		return models.UserRecord{}, 0, err
	}

	cells, err := d.store.ReadRow(ctx, schema.Sheet, row)
	if err != nil {
		slog.Error("Directory LookupUser read failed", "error", err, "sheet", schema.Sheet, "row", row)
		return models.UserRecord{}, 0, err
	}

	record, err := models.UserRecordFromRow(schema, cells)
	if err != nil {
		slog.Error("Directory LookupUser incomplete row", "error", err, "sheet", schema.Sheet, "row", row, "id", id)
		return models.UserRecord{}, 0, err
	}

	slog.Debug("Directory LookupUser succeeded", "sheet", schema.Sheet, "row", row, "id", id)
	return record, row, nil
}

// SaveCredentials commits a first-time setup: marks the row as no longer
// first-time and writes the password, security question, and answer.
func (d *Directory) SaveCredentials(ctx context.Context, role models.Role, id, password, question, answer string) error {
	lock := d.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	schema := models.SchemaFor(role)
	row, err := d.store.FindRow(ctx, schema.Sheet, schema.ID, id)
	if err != nil {
		slog.Error("Directory SaveCredentials find failed", "error", err, "sheet", schema.Sheet, "id", id)
		return err
	}

	writes := []struct {
		col   int
		value string
	}{
		{schema.FirstTime, "NO"},
		{schema.Password, password},
		{schema.SecurityQuestion, question},
		{schema.SecurityAnswer, answer},
	}
	for _, w := range writes {
		if err := d.store.WriteCell(ctx, schema.Sheet, row, w.col, w.value); err != nil {
			slog.Error("Directory SaveCredentials write failed", "error", err, "sheet", schema.Sheet, "row", row, "col", w.col)
			return fmt.Errorf("failed to save credentials for %s: %w", id, err)
		}
	}

	slog.Info("Directory SaveCredentials committed", "sheet", schema.Sheet, "row", row, "id", id)
	return nil
}

// UpdatePassword writes a replacement password for the given user id.
func (d *Directory) UpdatePassword(ctx context.Context, role models.Role, id, password string) error {
	lock := d.userLock(id)
	lock.Lock()
	defer lock.Unlock()

	schema := models.SchemaFor(role)
	row, err := d.store.FindRow(ctx, schema.Sheet, schema.ID, id)
	if err != nil {
		slog.Error("Directory UpdatePassword find failed", "error", err, "sheet", schema.Sheet, "id", id)
		return err
	}

	if err := d.store.WriteCell(ctx, schema.Sheet, row, schema.Password, password); err != nil {
		slog.Error("Directory UpdatePassword write failed", "error", err, "sheet", schema.Sheet, "row", row)
		return fmt.Errorf("failed to update password for %s: %w", id, err)
	}

	slog.Info("Directory UpdatePassword committed", "sheet", schema.Sheet, "row", row, "id", id)
	return nil
}

// Feedback returns the feedback text stored against the given user id in
// the results sheet. Returns models.ErrNotFound when no entry exists.
func (d *Directory) Feedback(ctx context.Context, id string) (string, error) {
	row, err := d.store.FindRow(ctx, models.SheetResults, models.ResultsKeyColumn, id)
	if err != nil {
		slog.Debug("Directory Feedback find failed", "error", err, "id", id)
		return "", err
	}

	cells, err := d.store.ReadRow(ctx, models.SheetResults, row)
	if err != nil {
		slog.Error("Directory Feedback read failed", "error", err, "row", row)
		return "", err
	}
	if len(cells) < models.ResultsFeedbackColumn {
		slog.Error("Directory Feedback row missing text column", "row", row, "id", id)
		return "", fmt.Errorf("%w: results row %d has no feedback column", models.ErrDataIntegrity, row)
	}

	slog.Debug("Directory Feedback succeeded", "row", row, "id", id)
	return cells[models.ResultsFeedbackColumn-1], nil
}
