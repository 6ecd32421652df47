// Package dialog implements the conversation state machine for SchoolBot.
//
// This file holds the first-time password and security-question setup flow.
package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/session"
)

// handlePasswordSetup collects the first-time password candidate. Length is
// constrained to 4-8 characters; violations re-prompt in place.
func (e *Engine) handlePasswordSetup(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	password := ev.Text
	if len(password) < models.MinPasswordLength || len(password) > models.MaxPasswordLength {
		slog.Debug("Setup password rejected for length", "chat", sess.Key, "length", len(password))
		return models.StatePasswordSetup, []models.Reply{models.TextReply(
			"❌ Password must be between 4 and 8 characters. Please try again:",
		)}, nil
	}

	sess.Set(models.DataKeyPendingPassword, password)
	return models.StatePasswordSetupConfirm, []models.Reply{models.TextReply(
		"✅ Password set! Please re-enter your password to confirm:",
	)}, nil
}

// handlePasswordSetupConfirm requires a byte-exact retype of the candidate.
// A mismatch drops the candidate entirely: the user starts over.
func (e *Engine) handlePasswordSetupConfirm(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	candidate := sess.Get(models.DataKeyPendingPassword)
	if ev.Text != candidate {
		sess.Delete(models.DataKeyPendingPassword)
		slog.Debug("Setup password confirmation mismatch", "chat", sess.Key)
		return models.StatePasswordSetup, []models.Reply{models.TextReply(
			"❌ Passwords do not match. Please set your password again:",
		)}, nil
	}

	sess.Set(models.DataKeyPassword, candidate)
	sess.Delete(models.DataKeyPendingPassword)
	return models.StateSecurityQuestion, []models.Reply{models.TextReply(
		"✅ Password confirmed! Now, please set a security question for password recovery:",
	)}, nil
}

// handleSecurityQuestion stores the free-text security question.
func (e *Engine) handleSecurityQuestion(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	sess.Set(models.DataKeySecurityQuestion, ev.Text)
	return models.StateSecurityAnswer, []models.Reply{models.TextReply(
		"✅ Security question set! Now, please provide the answer:",
	)}, nil
}

// handleSecurityAnswer stores the answer and commits the whole first-time
// setup to the datastore: firstTime flag, password, question, and answer
// are written once per confirmed input.
func (e *Engine) handleSecurityAnswer(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	sess.Set(models.DataKeySecurityAnswer, ev.Text)

	role := sess.Role()
	userID := sess.Get(models.DataKeyUserID)
	err := e.directory.SaveCredentials(ctx, role, userID,
		sess.Get(models.DataKeyPassword),
		sess.Get(models.DataKeySecurityQuestion),
		sess.Get(models.DataKeySecurityAnswer),
	)
	if err != nil {
		return models.StateSecurityAnswer, nil, fmt.Errorf("first-time setup commit failed: %w", err)
	}

	sess.Set(models.DataKeyFirstTime, "NO")
	slog.Info("First-time setup committed", "chat", sess.Key, "role", role)

	replies := append(
		[]models.Reply{models.TextReply("✅ Your account has been created successfully!\nHere is your profile:")},
		e.welcome(sess),
	)
	return menuStateFor(role), replies, nil
}
