package dialog

import (
	"reflect"
	"testing"

	"github.com/edusuite/schoolbot/internal/models"
)

// loginStudent signs a returning student into the menu.
func loginStudent(t *testing.T, engine *Engine, chat string) {
	t.Helper()
	send(t, engine, chat, "Student")
	send(t, engine, chat, "S123")
	send(t, engine, chat, "pass1")
	if got := stateOf(t, engine, chat); got != models.StateStudentMenu {
		t.Fatalf("expected STUDENT_MENU after login, got %s", got)
	}
}

// loginTeacher signs a returning teacher into the menu.
func loginTeacher(t *testing.T, engine *Engine, chat string) {
	t.Helper()
	send(t, engine, chat, "Teacher")
	send(t, engine, chat, "T55")
	send(t, engine, chat, "secret")
	if got := stateOf(t, engine, chat); got != models.StateTeacherMenu {
		t.Fatalf("expected TEACHER_MENU after login, got %s", got)
	}
}

func TestStudentMenuUnknownInputStaysPut(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	replies := send(t, engine, "chat1", "nonsense")
	if got := stateOf(t, engine, "chat1"); got != models.StateStudentMenu {
		t.Errorf("unknown input should keep STUDENT_MENU, got %s", got)
	}
	wantBodyContains(t, replies, "Invalid input")
}

func TestTextbookLinkLowercasesAndEscapesSubject(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelTextbooks)
	replies := send(t, engine, "chat1", "Math")
	wantBodyContains(t, replies, "https://www.google.com/search?q=math+textbook")
}

func TestTextbookSelectionIsIdempotent(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelTextbooks)
	first := send(t, engine, "chat1", "Science")
	second := send(t, engine, "chat1", "Science")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated selection should produce identical replies:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if got := stateOf(t, engine, "chat1"); got != models.StateTextbookChoose {
		t.Errorf("repeated selection should not change state, got %s", got)
	}
}

func TestVideoLinkUsesYouTubeSearch(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelVideos)
	replies := send(t, engine, "chat1", "History")
	wantBodyContains(t, replies, "https://www.youtube.com/results?search_query=history+lesson")
}

func TestBackFromSubjectMenuReturnsToStudentMenu(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelTextbooks)
	send(t, engine, "chat1", LabelBack)
	if got := stateOf(t, engine, "chat1"); got != models.StateStudentMenu {
		t.Errorf("Back should return to STUDENT_MENU, got %s", got)
	}
}

func TestResultsLookupFindsOwnFeedback(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	store.LoadRow(models.SheetResults, 2, "S123", "Great progress in algebra.")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelResults)
	replies := send(t, engine, "chat1", "Math")
	if got := stateOf(t, engine, "chat1"); got != models.StateStudentMenu {
		t.Errorf("feedback delivery should return to STUDENT_MENU, got %s", got)
	}
	wantBodyContains(t, replies, "Great progress in algebra.")
}

func TestResultsLookupMissingEntry(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelFeedback)
	replies := send(t, engine, "chat1", "Math")
	if got := stateOf(t, engine, "chat1"); got != models.StateStudentMenu {
		t.Errorf("missing feedback should return to STUDENT_MENU, got %s", got)
	}
	wantBodyContains(t, replies, "No feedback available")
}

func TestTeacherBackToRoleSelectClearsIdentity(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTeacher(store, 2, "NO", "T55", "secret", "First school?", "Hillside")
	loginTeacher(t, engine, "chat1")

	send(t, engine, "chat1", LabelRoleSelect)
	if got := stateOf(t, engine, "chat1"); got != models.StateRoleSelect {
		t.Errorf("expected ROLE_SELECT, got %s", got)
	}
	sess := engine.sessions.Peek("chat1")
	if sess.Has(models.DataKeyUserID) {
		t.Error("returning to role selection should clear session scratch")
	}
}

func TestLogoutRequiresExactPhrase(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	replies := send(t, engine, "chat1", LabelLogOut)
	if got := stateOf(t, engine, "chat1"); got != models.StateLogoutConfirm {
		t.Fatalf("expected LOGOUT_CONFIRM, got %s", got)
	}
	wantBodyContains(t, replies, "Student Logout")

	for _, wrong := range []string{"student logout", "Logout", "Student logout please"} {
		replies = send(t, engine, "chat1", wrong)
		if got := stateOf(t, engine, "chat1"); got != models.StateLogoutConfirm {
			t.Errorf("phrase %q should be rejected, got state %s", wrong, got)
		}
		wantBodyContains(t, replies, "Invalid logout confirmation")
	}
}

func TestLogoutClearsSessionEntirely(t *testing.T) {
	engine, store := newTestEngine(t)
	seedStudent(store, 2, "NO", "S123", "pass1", "Favorite color?", "Blue")
	loginStudent(t, engine, "chat1")

	send(t, engine, "chat1", LabelLogOut)
	replies := send(t, engine, "chat1", "Student Logout")
	wantBodyContains(t, replies, "logged out")

	if sess := engine.sessions.Peek("chat1"); sess != nil {
		t.Error("logout should remove the session entry")
	}

	// The next contact starts a fresh dialogue at role selection.
	send(t, engine, "chat1", "hello")
	if got := stateOf(t, engine, "chat1"); got != models.StateRoleSelect {
		t.Errorf("fresh contact after logout should start at ROLE_SELECT, got %s", got)
	}
}

func TestTeacherLogoutPhraseUsesTeacherTitle(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTeacher(store, 2, "NO", "T55", "secret", "First school?", "Hillside")
	loginTeacher(t, engine, "chat1")

	send(t, engine, "chat1", LabelLogOut)
	send(t, engine, "chat1", "Teacher Logout")
	if sess := engine.sessions.Peek("chat1"); sess != nil {
		t.Error("teacher logout should remove the session entry")
	}
}
