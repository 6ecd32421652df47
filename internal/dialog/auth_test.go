package dialog

import (
	"testing"

	"github.com/edusuite/schoolbot/internal/models"
)

func TestRoleSelectRejectsUnknownInput(t *testing.T) {
	engine, _ := newTestEngine(t)
	replies := send(t, engine, "chat1", "Principal")
	if got := stateOf(t, engine, "chat1"); got != models.StateRoleSelect {
		t.Errorf("unknown role should not change state, got %s", got)
	}
	wantBodyContains(t, replies, "Invalid input")
}

func TestRoleSelectAcceptsEitherCase(t *testing.T) {
	cases := []struct {
		input string
		want  models.StateType
	}{
		{"Student", models.StateStudentAuth},
		{"student", models.StateStudentAuth},
		{"Teacher", models.StateTeacherAuth},
		{"TEACHER", models.StateTeacherAuth},
	}
	for _, tc := range cases {
		engine, _ := newTestEngine(t)
		send(t, engine, "chat1", tc.input)
		if got := stateOf(t, engine, "chat1"); got != tc.want {
			t.Errorf("role input %q: expected %s, got %s", tc.input, tc.want, got)
		}
	}
}

func TestStudentAuthUnknownIDRepromptsInPlace(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")

	send(t, engine, "chat1", "Student")
	replies := send(t, engine, "chat1", "S999")

	if got := stateOf(t, engine, "chat1"); got != models.StateStudentAuth {
		t.Errorf("unknown id should keep STUDENT_AUTH, got %s", got)
	}
	wantBodyContains(t, replies, "User not found")

	// The correct id still works on the next attempt.
	send(t, engine, "chat1", "S123")
	if got := stateOf(t, engine, "chat1"); got != models.StatePasswordConfirm {
		t.Errorf("expected PASSWORD_CONFIRM after valid id, got %s", got)
	}
}

func TestFirstTimeFlagRoutesToSetup(t *testing.T) {
	cases := []struct {
		firstTime string
		want      models.StateType
	}{
		{"yes", models.StatePasswordSetup},
		{"YES", models.StatePasswordSetup},
		{" Yes ", models.StatePasswordSetup},
		{"NO", models.StatePasswordConfirm},
		{"no", models.StatePasswordConfirm},
		{"", models.StatePasswordConfirm},
	}
	for _, tc := range cases {
		engine, store := newTestEngine(t)
		seedStudent(store, 2, tc.firstTime, "S123", "pass1", "Favorite color?", "Blue")

		send(t, engine, "chat1", "Student")
		send(t, engine, "chat1", "S123")
		if got := stateOf(t, engine, "chat1"); got != tc.want {
			t.Errorf("firstTime=%q: expected %s, got %s", tc.firstTime, tc.want, got)
		}
	}
}

func TestPasswordConfirmSuccessShowsProfile(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")

	send(t, engine, "chat1", "Student")
	send(t, engine, "chat1", "S123")
	replies := send(t, engine, "chat1", "pass1")

	if got := stateOf(t, engine, "chat1"); got != models.StateStudentMenu {
		t.Errorf("expected STUDENT_MENU after correct password, got %s", got)
	}
	wantBodyContains(t, replies, "Password correct!")
	wantBodyContains(t, replies, "Alice Johnson")
	wantBodyContains(t, replies, "Grade: 10")
}

func TestPasswordConfirmIsCaseSensitive(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "Pass1", "Favorite color?", "Blue")

	send(t, engine, "chat1", "Student")
	send(t, engine, "chat1", "S123")
	replies := send(t, engine, "chat1", "pass1")

	if got := stateOf(t, engine, "chat1"); got != models.StatePasswordConfirm {
		t.Errorf("case-variant password should be rejected, got state %s", got)
	}
	wantBodyContains(t, replies, "Incorrect password")
}

func TestPasswordRetryPromptCarriesRecoveryButton(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")

	send(t, engine, "chat1", "Student")
	send(t, engine, "chat1", "S123")
	replies := send(t, engine, "chat1", "wrong")

	found := false
	for _, r := range replies {
		if r.Markup != nil && r.Markup.Inline && r.Markup.Callback == models.CallbackForgotPassword {
			found = true
		}
	}
	if !found {
		t.Error("retry prompt should carry the inline Forgot Password button")
	}
}

func TestTeacherRepeatedWrongPasswordsNeverLockOut(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTeacher(store, 2, "NO", "T55", "secret", "First school?", "Hillside")

	send(t, engine, "chat1", "Teacher")
	send(t, engine, "chat1", "T55")

	for i := 0; i < 3; i++ {
		replies := send(t, engine, "chat1", "wrong")
		if got := stateOf(t, engine, "chat1"); got != models.StatePasswordConfirm {
			t.Fatalf("attempt %d: expected PASSWORD_CONFIRM, got %s", i+1, got)
		}
		wantBodyContains(t, replies, "Incorrect password")
	}

	replies := send(t, engine, "chat1", "secret")
	if got := stateOf(t, engine, "chat1"); got != models.StateTeacherMenu {
		t.Errorf("fourth attempt with correct password should succeed, got %s", got)
	}
	wantBodyContains(t, replies, "David Okoro")
	wantBodyContains(t, replies, "Subject: Math")
}
