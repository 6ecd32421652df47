// Package dialog implements the conversation state machine for SchoolBot.
//
// This file holds role selection and the authentication transitions.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/session"
)

// roleSelectPrompt is the opening message with the role keyboard.
func roleSelectPrompt() models.Reply {
	return models.KeyboardReply(
		"🌟 Welcome to the school's official bot! 🌟\n\n"+
			"Are you a Student or a Teacher?\n"+
			"Please select your role below:",
		[]string{"Student"},
		[]string{"Teacher"},
	)
}

// passwordConfirmPrompt asks a returning user for their password, with the
// inline recovery trigger attached.
func passwordConfirmPrompt() models.Reply {
	return models.InlineReply(
		"🔐 Please enter your password to access your account:",
		"Forgot Password",
		models.CallbackForgotPassword,
	)
}

// handleRoleSelect consumes the Student/Teacher choice.
func (e *Engine) handleRoleSelect(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	role, ok := models.ParseRole(ev.Text)
	if !ok {
		slog.Warn("Invalid role selection", "chat", sess.Key, "input_length", len(ev.Text))
		return models.StateRoleSelect, []models.Reply{models.TextReply(msgUnhandledInput)}, nil
	}

	sess.Set(models.DataKeyRole, string(role))
	slog.Info("Role selected", "chat", sess.Key, "role", role)

	if role == models.RoleStudent {
		return models.StateStudentAuth, []models.Reply{models.TextReply(
			"📚 Excellent! Please enter your Student Administration Number to proceed.",
		)}, nil
	}
	return models.StateTeacherAuth, []models.Reply{models.TextReply(
		"👨‍🏫 Welcome, teacher! Please enter your Teacher ID to continue.",
	)}, nil
}

// handleStudentAuth consumes a student administration number.
func (e *Engine) handleStudentAuth(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	return e.authenticate(ctx, sess, models.RoleStudent, ev.Text, models.StateStudentAuth)
}

// handleTeacherAuth consumes a teacher ID.
func (e *Engine) handleTeacherAuth(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	return e.authenticate(ctx, sess, models.RoleTeacher, ev.Text, models.StateTeacherAuth)
}

// authenticate resolves the typed id against the session cache or the
// datastore, then routes to first-time setup or password confirmation.
func (e *Engine) authenticate(ctx context.Context, sess *session.Session, role models.Role, userID string, retryState models.StateType) (models.StateType, []models.Reply, error) {
	record, cached := e.cachedRecord(sess, userID)
	if !cached {
		found, _, err := e.directory.LookupUser(ctx, role, userID)
		if errors.Is(err, models.ErrNotFound) {
			slog.Warn("User id not found during authentication", "chat", sess.Key, "role", role)
			return retryState, []models.Reply{models.TextReply(
				"❌ User not found. Please ensure you are entering the correct ID.",
			)}, nil
		}
		if err != nil {
			return retryState, nil, fmt.Errorf("authentication lookup for %s failed: %w", userID, err)
		}
		record = found
		e.cacheRecord(sess, userID, record)
	}

	if record.IsFirstTime() {
		slog.Info("First-time login detected", "chat", sess.Key, "role", role)
		return models.StatePasswordSetup, []models.Reply{models.TextReply(
			"👤 First-time login detected.\n\n" +
				"Please set a strong password for your account (4-8 characters):",
		)}, nil
	}

	slog.Info("Prompting password for returning user", "chat", sess.Key, "role", role)
	return models.StatePasswordConfirm, []models.Reply{passwordConfirmPrompt()}, nil
}

// cachedRecord rebuilds a UserRecord from session scratch when the typed id
// matches the one already resolved for this session.
func (e *Engine) cachedRecord(sess *session.Session, userID string) (models.UserRecord, bool) {
	if sess.Get(models.DataKeyUserID) != userID || !sess.Has(models.DataKeyPassword) {
		return models.UserRecord{}, false
	}
	slog.Debug("Authentication served from session cache", "chat", sess.Key)
	return models.UserRecord{
		FirstTime:        sess.Get(models.DataKeyFirstTime),
		ID:               userID,
		FullName:         sess.Get(models.DataKeyFullName),
		Gender:           sess.Get(models.DataKeyGender),
		Classroom:        sess.Get(models.DataKeyClassroom),
		Grade:            sess.Get(models.DataKeyGrade),
		Subject:          sess.Get(models.DataKeySubject),
		Password:         sess.Get(models.DataKeyPassword),
		SecurityQuestion: sess.Get(models.DataKeySecurityQuestion),
		SecurityAnswer:   sess.Get(models.DataKeySecurityAnswer),
	}, true
}

// cacheRecord copies a resolved record into session scratch. The scratch is
// a read-through cache invalidated only by writes this engine performs.
func (e *Engine) cacheRecord(sess *session.Session, userID string, record models.UserRecord) {
	sess.Set(models.DataKeyUserID, userID)
	sess.Set(models.DataKeyFirstTime, record.FirstTime)
	sess.Set(models.DataKeyFullName, record.FullName)
	sess.Set(models.DataKeyGender, record.Gender)
	sess.Set(models.DataKeyClassroom, record.Classroom)
	sess.Set(models.DataKeyGrade, record.Grade)
	sess.Set(models.DataKeySubject, record.Subject)
	sess.Set(models.DataKeyPassword, record.Password)
	sess.Set(models.DataKeySecurityQuestion, record.SecurityQuestion)
	sess.Set(models.DataKeySecurityAnswer, record.SecurityAnswer)
}

// handlePasswordConfirm checks a returning user's password against the
// cached plaintext credential. Retries are unlimited unless a limiter is
// configured.
func (e *Engine) handlePasswordConfirm(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	if !e.limiter.Allow(sess.Key) {
		return models.StatePasswordConfirm, []models.Reply{models.TextReply(
			"❌ Too many failed attempts. Please try again later.",
		)}, nil
	}

	stored := sess.Get(models.DataKeyPassword)
	if e.verifier.Verify(stored, ev.Text) {
		e.limiter.Reset(sess.Key)
		slog.Info("Password accepted", "chat", sess.Key, "role", sess.Role())
		replies := append(
			[]models.Reply{models.TextReply("✅ Password correct! You are now signed in. Here is your profile:")},
			e.welcome(sess),
		)
		return menuStateFor(sess.Role()), replies, nil
	}

	e.limiter.RecordFailure(sess.Key)
	slog.Warn("Incorrect password attempt", "chat", sess.Key, "role", sess.Role())
	return models.StatePasswordConfirm, []models.Reply{models.InlineReply(
		"❌ Incorrect password. Please try again:",
		"Forgot Password",
		models.CallbackForgotPassword,
	)}, nil
}
