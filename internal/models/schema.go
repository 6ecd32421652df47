// Package models declares the sheet schemas for SchoolBot.
//
// Column positions are fixed per sheet and 1-based, matching the external
// spreadsheets this system fronts. Any row shorter than its declared schema
// is a data-integrity error.
package models

import (
	"fmt"
	"strings"
)

// Sheet names in the external tabular datastore.
const (
	SheetStudents = "students"
	SheetTeachers = "teachers"
	SheetResults  = "resultsnfeedback"
)

// SheetSchema declares the 1-based column ordinals of a user sheet. Zero
// means the column does not exist for that sheet.
type SheetSchema struct {
	Sheet            string
	FirstTime        int
	ID               int
	FullName         int
	Gender           int
	Classroom        int
	Grade            int
	Tuition          int
	Subject          int
	Password         int
	SecurityQuestion int
	SecurityAnswer   int
}

// StudentSchema is the declared layout of the students sheet.
var StudentSchema = SheetSchema{
	Sheet:            SheetStudents,
	FirstTime:        1,
	ID:               2,
	FullName:         3,
	Gender:           4,
	Classroom:        5,
	Grade:            6,
	Tuition:          7,
	Subject:          8,
	Password:         9,
	SecurityQuestion: 10,
	SecurityAnswer:   11,
}

// TeacherSchema is the declared layout of the teachers sheet.
var TeacherSchema = SheetSchema{
	Sheet:            SheetTeachers,
	FirstTime:        1,
	ID:               2,
	FullName:         3,
	Gender:           4,
	Subject:          5,
	Password:         6,
	SecurityQuestion: 7,
	SecurityAnswer:   8,
}

// Results sheet layout: key in column 1, feedback text in column 2.
const (
	ResultsKeyColumn      = 1
	ResultsFeedbackColumn = 2
)

// SchemaFor returns the schema for the given role.
func SchemaFor(role Role) SheetSchema {
	if role == RoleTeacher {
		return TeacherSchema
	}
	return StudentSchema
}

// Width returns the number of columns a row must have to satisfy the schema.
func (s SheetSchema) Width() int {
	max := 0
	for _, col := range []int{
		s.FirstTime, s.ID, s.FullName, s.Gender, s.Classroom,
		s.Grade, s.Tuition, s.Subject, s.Password,
		s.SecurityQuestion, s.SecurityAnswer,
	} {
		if col > max {
			max = col
		}
	}
	return max
}

// UserRecord is one row of a user sheet, decoded through its schema.
type UserRecord struct {
	FirstTime        string
	ID               string
	FullName         string
	Gender           string
	Classroom        string
	Grade            string
	Subject          string
	Password         string
	SecurityQuestion string
	SecurityAnswer   string
}

// IsFirstTime reports whether the record still requires password and
// security setup. The flag is stored as text and compared case-insensitively.
func (u UserRecord) IsFirstTime() bool {
	return strings.EqualFold(strings.TrimSpace(u.FirstTime), "yes")
}

// cell returns the 1-based column value, or "" for absent ordinals.
func cell(row []string, col int) string {
	if col <= 0 || col > len(row) {
		return ""
	}
	return row[col-1]
}

// UserRecordFromRow decodes a raw row through the schema. A row shorter
// than the schema width yields ErrDataIntegrity.
func UserRecordFromRow(schema SheetSchema, row []string) (UserRecord, error) {
	if len(row) < schema.Width() {
		return UserRecord{}, fmt.Errorf("%w: sheet %s has %d columns, need %d",
			ErrDataIntegrity, schema.Sheet, len(row), schema.Width())
	}
	return UserRecord{
		FirstTime:        cell(row, schema.FirstTime),
		ID:               cell(row, schema.ID),
		FullName:         cell(row, schema.FullName),
		Gender:           cell(row, schema.Gender),
		Classroom:        cell(row, schema.Classroom),
		Grade:            cell(row, schema.Grade),
		Subject:          cell(row, schema.Subject),
		Password:         cell(row, schema.Password),
		SecurityQuestion: cell(row, schema.SecurityQuestion),
		SecurityAnswer:   cell(row, schema.SecurityAnswer),
	}, nil
}
