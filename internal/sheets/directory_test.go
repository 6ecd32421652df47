package sheets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edusuite/schoolbot/internal/models"
)

func seedStudentRow(store *InMemoryStore, row int, firstTime, id, password string) {
	store.LoadRow(models.SheetStudents, row,
		firstTime, id, "Alice Johnson", "Female", "B2", "10", "paid", "",
		password, "Favorite color?", "Blue")
}

func TestLookupUserDecodesStudentRow(t *testing.T) {
	store := NewInMemoryStore()
	seedStudentRow(store, 2, "NO", "S123", "pass1")
	dir := NewDirectory(store)

	record, row, err := dir.LookupUser(context.Background(), models.RoleStudent, "S123")
	if err != nil {
		t.Fatalf("LookupUser failed: %v", err)
	}
	if row != 2 {
		t.Errorf("expected row 2, got %d", row)
	}
	if record.FullName != "Alice Johnson" || record.Grade != "10" || record.Password != "pass1" {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.IsFirstTime() {
		t.Error("record with firstTime=NO should not be first-time")
	}
}

func TestLookupUserUnknownID(t *testing.T) {
	store := NewInMemoryStore()
	seedStudentRow(store, 2, "NO", "S123", "pass1")
	dir := NewDirectory(store)

	_, _, err := dir.LookupUser(context.Background(), models.RoleStudent, "S999")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupUserShortRowIsDataIntegrity(t *testing.T) {
	store := NewInMemoryStore()
	store.LoadRow(models.SheetStudents, 2, "NO", "S123", "Alice Johnson")
	dir := NewDirectory(store)

	_, _, err := dir.LookupUser(context.Background(), models.RoleStudent, "S123")
	if !errors.Is(err, models.ErrDataIntegrity) {
		t.Errorf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestLookupUserTeacherSchema(t *testing.T) {
	store := NewInMemoryStore()
	store.LoadRow(models.SheetTeachers, 3,
		"yes", "T55", "David Okoro", "Male", "Math", "", "", "")
	dir := NewDirectory(store)

	record, _, err := dir.LookupUser(context.Background(), models.RoleTeacher, "T55")
	if err != nil {
		t.Fatalf("LookupUser failed: %v", err)
	}
	if record.Subject != "Math" {
		t.Errorf("expected subject Math, got %q", record.Subject)
	}
	if !record.IsFirstTime() {
		t.Error("record with firstTime=yes should be first-time")
	}
}

func TestSaveCredentialsWritesFourCells(t *testing.T) {
	store := NewInMemoryStore()
	seedStudentRow(store, 2, "yes", "S123", "")
	dir := NewDirectory(store)

	err := dir.SaveCredentials(context.Background(), models.RoleStudent, "S123", "pass1", "pet?", "Rex")
	if err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	row, err := store.ReadRow(context.Background(), models.SheetStudents, 2)
	if err != nil {
		t.Fatalf("ReadRow failed: %v", err)
	}
	if row[models.StudentSchema.FirstTime-1] != "NO" {
		t.Errorf("firstTime cell: expected NO, got %q", row[models.StudentSchema.FirstTime-1])
	}
	if row[models.StudentSchema.Password-1] != "pass1" {
		t.Errorf("password cell: expected pass1, got %q", row[models.StudentSchema.Password-1])
	}
	if row[models.StudentSchema.SecurityQuestion-1] != "pet?" {
		t.Errorf("question cell: expected pet?, got %q", row[models.StudentSchema.SecurityQuestion-1])
	}
	if row[models.StudentSchema.SecurityAnswer-1] != "Rex" {
		t.Errorf("answer cell: expected Rex, got %q", row[models.StudentSchema.SecurityAnswer-1])
	}
}

func TestUpdatePasswordUnknownID(t *testing.T) {
	store := NewInMemoryStore()
	dir := NewDirectory(store)
	err := dir.UpdatePassword(context.Background(), models.RoleStudent, "S123", "newpass")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentPasswordUpdatesSerialize(t *testing.T) {
	store := NewInMemoryStore()
	seedStudentRow(store, 2, "NO", "S123", "pass1")
	dir := NewDirectory(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dir.UpdatePassword(context.Background(), models.RoleStudent, "S123", "newpass"); err != nil {
				t.Errorf("UpdatePassword failed: %v", err)
			}
		}()
	}
	wg.Wait()

	record, _, err := dir.LookupUser(context.Background(), models.RoleStudent, "S123")
	if err != nil {
		t.Fatalf("LookupUser failed: %v", err)
	}
	if record.Password != "newpass" {
		t.Errorf("expected password newpass, got %q", record.Password)
	}
}

func TestFeedbackLookup(t *testing.T) {
	store := NewInMemoryStore()
	store.LoadRow(models.SheetResults, 2, "S123", "Great progress in algebra.")
	dir := NewDirectory(store)

	feedback, err := dir.Feedback(context.Background(), "S123")
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if feedback != "Great progress in algebra." {
		t.Errorf("unexpected feedback: %q", feedback)
	}

	_, err = dir.Feedback(context.Background(), "S999")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing entry, got %v", err)
	}
}

func TestFeedbackRowWithoutTextColumn(t *testing.T) {
	store := NewInMemoryStore()
	store.LoadRow(models.SheetResults, 2, "S123")
	dir := NewDirectory(store)

	_, err := dir.Feedback(context.Background(), "S123")
	if !errors.Is(err, models.ErrDataIntegrity) {
		t.Errorf("expected ErrDataIntegrity, got %v", err)
	}
}
