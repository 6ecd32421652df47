// Package dialog implements the conversation state machine for SchoolBot.
//
// This file holds the authenticated menus, their leaf features, and logout.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/session"
)

// Menu option labels. The emoji prefixes are part of the label and must
// match the keyboard buttons exactly.
const (
	LabelTextbooks   = "📚 Access Textbooks"
	LabelVideos      = "🎥 Watch Video Lessons"
	LabelResults     = "🗂️ View Results"
	LabelFeedback    = "💬 Teacher Feedback"
	LabelUpload      = "📚 Upload Materials"
	LabelPerformance = "📊 View Student Performance"
	LabelRoleSelect  = "🔙 Back to Role Selection"
	LabelLogOut      = "Log Out"
	LabelBack        = "🔙 Back"
)

// Feedback viewing categories recorded in session scratch.
const (
	CategoryResults  = "results"
	CategoryFeedback = "feedback"
)

// studentMenuRows is the student reply keyboard.
func studentMenuRows() [][]string {
	return [][]string{
		{LabelTextbooks, LabelVideos},
		{LabelResults, LabelFeedback},
		{LabelLogOut},
	}
}

// teacherMenuRows is the teacher reply keyboard.
func teacherMenuRows() [][]string {
	return [][]string{
		{LabelUpload, LabelPerformance},
		{LabelRoleSelect},
		{LabelLogOut},
	}
}

// subjectRows is the subject-selection keyboard shared by the leaf features.
func subjectRows() [][]string {
	return [][]string{
		{"Math", "Science"},
		{"History", "Literature"},
		{LabelBack},
	}
}

// menuStateFor maps a role to its menu state.
func menuStateFor(role models.Role) models.StateType {
	if role == models.RoleTeacher {
		return models.StateTeacherMenu
	}
	return models.StateStudentMenu
}

// menuPrompt rebuilds the main menu keyboard for the session's role.
func menuPrompt(role models.Role) models.Reply {
	rows := studentMenuRows()
	if role == models.RoleTeacher {
		rows = teacherMenuRows()
	}
	return models.Reply{
		Body:   "🔙 Back to the main menu:",
		Markup: &models.ReplyMarkup{Rows: rows},
	}
}

// welcome builds the profile summary followed by the role's menu keyboard.
func (e *Engine) welcome(sess *session.Session) models.Reply {
	role := sess.Role()
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Welcome, %s!\n\n", sess.Get(models.DataKeyFullName))
	fmt.Fprintf(&b, "👤 Full Name: %s\n", sess.Get(models.DataKeyFullName))
	fmt.Fprintf(&b, "🧑 Gender: %s\n", sess.Get(models.DataKeyGender))
	fmt.Fprintf(&b, "🆔 ID: %s\n", sess.Get(models.DataKeyUserID))

	rows := studentMenuRows()
	if role == models.RoleTeacher {
		fmt.Fprintf(&b, "📘 Subject: %s\n\n", sess.Get(models.DataKeySubject))
		rows = teacherMenuRows()
	} else {
		fmt.Fprintf(&b, "📚 Grade: %s\n🛏 Classroom: %s\n\n",
			sess.Get(models.DataKeyGrade), sess.Get(models.DataKeyClassroom))
	}
	b.WriteString("What would you like to do?")

	return models.Reply{Body: b.String(), Markup: &models.ReplyMarkup{Rows: rows}}
}

// handleStudentMenu routes a student menu selection.
func (e *Engine) handleStudentMenu(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	switch ev.Text {
	case LabelTextbooks:
		slog.Info("Student opened textbooks", "chat", sess.Key)
		return models.StateTextbookChoose, []models.Reply{{
			Body:   "📚 What subject do you want textbooks for?",
			Markup: &models.ReplyMarkup{Rows: subjectRows()},
		}}, nil
	case LabelVideos:
		slog.Info("Student opened video lessons", "chat", sess.Key)
		return models.StateVideoChoose, []models.Reply{{
			Body:   "🎥 What subject do you want video lessons for?",
			Markup: &models.ReplyMarkup{Rows: subjectRows()},
		}}, nil
	case LabelResults, LabelFeedback:
		category := CategoryResults
		if ev.Text == LabelFeedback {
			category = CategoryFeedback
		}
		sess.Set(models.DataKeyViewingCategory, category)
		slog.Info("Student opened results/feedback", "chat", sess.Key, "category", category)
		return models.StateResultsChoose, []models.Reply{{
			Body:   "📊 What subject do you want to view?",
			Markup: &models.ReplyMarkup{Rows: subjectRows()},
		}}, nil
	case LabelLogOut:
		return e.logoutPrompt(sess)
	}

	slog.Debug("Unhandled student menu input", "chat", sess.Key)
	return models.StateStudentMenu, []models.Reply{models.TextReply(msgUnhandledInput)}, nil
}

// handleTeacherMenu routes a teacher menu selection.
func (e *Engine) handleTeacherMenu(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	switch ev.Text {
	case LabelUpload:
		slog.Info("Teacher opened material upload", "chat", sess.Key)
		return models.StateUpload, []models.Reply{{
			Body: "📤 Please upload the materials you want to share with the students.\n\n" +
				"You can upload files such as PDFs, images, or videos. When you're done, type 'Done' or press the 'Back' button.",
			Markup: &models.ReplyMarkup{Rows: [][]string{{LabelBack}}},
		}}, nil
	case LabelPerformance:
		slog.Info("Teacher opened performance view", "chat", sess.Key)
		return models.StatePerformance, []models.Reply{{
			Body: "📊 Viewing student performance...\n\n" +
				"Please select a class or subject to view performance data. When you're done, type 'Done' or press the 'Back' button.",
			Markup: &models.ReplyMarkup{Rows: [][]string{{LabelBack}}},
		}}, nil
	case LabelRoleSelect:
		sess.Reset()
		return models.StateRoleSelect, []models.Reply{roleSelectPrompt()}, nil
	case LabelLogOut:
		return e.logoutPrompt(sess)
	}

	slog.Debug("Unhandled teacher menu input", "chat", sess.Key)
	return models.StateTeacherMenu, []models.Reply{models.TextReply(msgUnhandledInput)}, nil
}

// handleTextbookChoose derives a canonical textbook search link from the
// selected subject. Repeating a selection is read-only and idempotent.
func (e *Engine) handleTextbookChoose(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	if ev.Text == LabelBack {
		return menuStateFor(sess.Role()), []models.Reply{menuPrompt(sess.Role())}, nil
	}

	link := fmt.Sprintf("https://www.google.com/search?q=%s+textbook",
		url.QueryEscape(strings.ToLower(ev.Text)))
	slog.Info("Textbook link generated", "chat", sess.Key, "subject", ev.Text)
	return models.StateTextbookChoose, []models.Reply{models.TextReply(fmt.Sprintf(
		"📖 Here are your textbooks for %s:\n%s", ev.Text, link,
	))}, nil
}

// handleVideoChoose derives a canonical video lesson search link from the
// selected subject.
func (e *Engine) handleVideoChoose(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	if ev.Text == LabelBack {
		return menuStateFor(sess.Role()), []models.Reply{menuPrompt(sess.Role())}, nil
	}

	link := fmt.Sprintf("https://www.youtube.com/results?search_query=%s+lesson",
		url.QueryEscape(strings.ToLower(ev.Text)))
	slog.Info("Video lesson link generated", "chat", sess.Key, "subject", ev.Text)
	return models.StateVideoChoose, []models.Reply{models.TextReply(fmt.Sprintf(
		"🎬 Here are video lessons for %s:\n%s", ev.Text, link,
	))}, nil
}

// handleResultsChoose looks up the caller's own feedback entry for the
// selected subject and returns to the student menu.
func (e *Engine) handleResultsChoose(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	if ev.Text == LabelBack {
		sess.Delete(models.DataKeyViewingCategory)
		return models.StateStudentMenu, []models.Reply{menuPrompt(models.RoleStudent)}, nil
	}

	userID := sess.Get(models.DataKeyUserID)
	feedback, err := e.directory.Feedback(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		slog.Debug("No feedback entry for user", "chat", sess.Key)
		return models.StateStudentMenu, []models.Reply{models.TextReply(
			"❌ No feedback available for this subject.",
		)}, nil
	}
	if err != nil {
		return models.StateResultsChoose, nil, fmt.Errorf("feedback lookup failed: %w", err)
	}

	slog.Info("Feedback delivered", "chat", sess.Key, "category", sess.Get(models.DataKeyViewingCategory))
	return models.StateStudentMenu, []models.Reply{models.TextReply(fmt.Sprintf(
		"💬 Feedback for %s:\n\n%s", ev.Text, feedback,
	))}, nil
}

// handleUpload returns to the teacher menu; file ingestion itself happens
// outside this dialogue.
func (e *Engine) handleUpload(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	return models.StateTeacherMenu, []models.Reply{menuPrompt(models.RoleTeacher)}, nil
}

// handlePerformance returns to the teacher menu.
func (e *Engine) handlePerformance(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	return models.StateTeacherMenu, []models.Reply{menuPrompt(models.RoleTeacher)}, nil
}

// logoutPrompt asks the user to confirm logout with the exact phrase.
func (e *Engine) logoutPrompt(sess *session.Session) (models.StateType, []models.Reply, error) {
	role := sess.Role()
	slog.Info("Logout requested", "chat", sess.Key, "role", role)
	return models.StateLogoutConfirm, []models.Reply{models.TextReply(fmt.Sprintf(
		"🔒 To confirm logout, type '%s Logout'.", role.Title(),
	))}, nil
}

// handleLogoutConfirm requires the exact "{Role} Logout" phrase. On a match
// the session entry is cleared in full and the dialogue ends.
func (e *Engine) handleLogoutConfirm(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	expected := sess.Role().Title() + " Logout"
	if strings.TrimSpace(ev.Text) != expected {
		slog.Debug("Logout confirmation rejected", "chat", sess.Key)
		return models.StateLogoutConfirm, []models.Reply{models.TextReply(fmt.Sprintf(
			"❌ Invalid logout confirmation. Please type '%s' to confirm.", expected,
		))}, nil
	}

	e.sessions.Clear(sess.Key)
	slog.Info("User logged out, session cleared", "chat", sess.Key)
	return models.StateEnd, []models.Reply{
		models.TextReply("✅ Your session has been cleared. You are now logged out."),
		models.TextReply("🧹 To clear the visible chat history:\n" +
			"- On mobile: Long press the chat and choose 'Clear Chat'.\n" +
			"- On desktop: Right-click the chat and select 'Clear History'.\n\n" +
			"Restart the bot with /start when you're ready."),
	}, nil
}
