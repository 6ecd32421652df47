package models

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"Student", RoleStudent, true},
		{"student", RoleStudent, true},
		{" TEACHER ", RoleTeacher, true},
		{"Principal", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q): expected (%q, %v), got (%q, %v)", tc.input, tc.want, tc.ok, got, ok)
		}
	}
}

func TestRoleTitle(t *testing.T) {
	if got := RoleStudent.Title(); got != "Student" {
		t.Errorf("expected Student, got %q", got)
	}
	if got := RoleTeacher.Title(); got != "Teacher" {
		t.Errorf("expected Teacher, got %q", got)
	}
	if got := Role("").Title(); got != "User" {
		t.Errorf("expected User for empty role, got %q", got)
	}
}

func TestEventIsCallback(t *testing.T) {
	if (Event{Text: "hello"}).IsCallback() {
		t.Error("text event should not be a callback")
	}
	if !(Event{Callback: CallbackForgotPassword}).IsCallback() {
		t.Error("callback event should report IsCallback")
	}
}

func TestIsFirstTimeFlag(t *testing.T) {
	cases := []struct {
		flag string
		want bool
	}{
		{"yes", true},
		{"YES", true},
		{" Yes ", true},
		{"NO", false},
		{"no", false},
		{"", false},
		{"maybe", false},
	}
	for _, tc := range cases {
		u := UserRecord{FirstTime: tc.flag}
		if got := u.IsFirstTime(); got != tc.want {
			t.Errorf("IsFirstTime(%q): expected %v, got %v", tc.flag, tc.want, got)
		}
	}
}

func TestUserRecordFromRowShortRow(t *testing.T) {
	_, err := UserRecordFromRow(StudentSchema, []string{"NO", "S123", "Alice Johnson"})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("expected ErrDataIntegrity for short row, got %v", err)
	}
}

func TestUserRecordFromRowStudent(t *testing.T) {
	row := []string{"NO", "S123", "Alice Johnson", "Female", "B2", "10", "paid", "",
		"pass1", "Favorite color?", "Blue"}
	record, err := UserRecordFromRow(StudentSchema, row)
	if err != nil {
		t.Fatalf("UserRecordFromRow failed: %v", err)
	}
	if record.ID != "S123" || record.Classroom != "B2" || record.SecurityAnswer != "Blue" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestUserRecordFromRowTeacher(t *testing.T) {
	row := []string{"yes", "T55", "David Okoro", "Male", "Math", "", "", ""}
	record, err := UserRecordFromRow(TeacherSchema, row)
	if err != nil {
		t.Fatalf("UserRecordFromRow failed: %v", err)
	}
	if record.Subject != "Math" || record.Classroom != "" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestSchemaWidths(t *testing.T) {
	if got := StudentSchema.Width(); got != 11 {
		t.Errorf("students schema width: expected 11, got %d", got)
	}
	if got := TeacherSchema.Width(); got != 8 {
		t.Errorf("teachers schema width: expected 8, got %d", got)
	}
}

func TestInlineReplyCarriesCallback(t *testing.T) {
	r := InlineReply("body", "Forgot Password", CallbackForgotPassword)
	if r.Markup == nil || !r.Markup.Inline {
		t.Fatal("inline reply should carry inline markup")
	}
	if r.Markup.Callback != CallbackForgotPassword {
		t.Errorf("expected callback token, got %q", r.Markup.Callback)
	}
	if len(r.Markup.Rows) != 1 || r.Markup.Rows[0][0] != "Forgot Password" {
		t.Errorf("unexpected rows: %+v", r.Markup.Rows)
	}
}
