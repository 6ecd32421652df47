// Package dialog implements the conversation state machine for SchoolBot.
//
// This file holds the forgotten-password recovery sub-flow. It is entered
// from the inline Forgot Password button or the /forgot_password command and
// routes back to role selection once the reset commits.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/session"
)

// resetIDPrompt opens the recovery sub-flow.
func resetIDPrompt() models.Reply {
	return models.TextReply("🔑 Please provide your ID to reset your password:")
}

// recoveryRole returns the role the recovery flow should search. Sessions
// that never picked a role fall back to the students sheet.
func recoveryRole(sess *session.Session) models.Role {
	if role := sess.Role(); models.IsValidRole(role) {
		return role
	}
	return models.RoleStudent
}

// handleResetID verifies the typed id and presents the stored security
// question.
func (e *Engine) handleResetID(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	userID := ev.Text
	record, _, err := e.directory.LookupUser(ctx, recoveryRole(sess), userID)
	if errors.Is(err, models.ErrNotFound) {
		slog.Warn("Recovery id not found", "chat", sess.Key)
		return models.StateResetID, []models.Reply{models.TextReply(
			"❌ User ID not found. Please try again.",
		)}, nil
	}
	if err != nil {
		return models.StateResetID, nil, fmt.Errorf("recovery id lookup failed: %w", err)
	}

	sess.Set(models.DataKeyResetUserID, userID)
	slog.Info("Recovery id verified, presenting security question", "chat", sess.Key)
	return models.StateResetSecurityAnswer, []models.Reply{models.TextReply(fmt.Sprintf(
		"❓ Security Question: %s\nPlease answer the question to proceed:",
		record.SecurityQuestion,
	))}, nil
}

// handleResetSecurityAnswer requires an exact, case-sensitive match against
// the stored answer. Retries are unlimited unless a limiter is configured.
func (e *Engine) handleResetSecurityAnswer(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	if !e.limiter.Allow(sess.Key) {
		return models.StateResetSecurityAnswer, []models.Reply{models.TextReply(
			"❌ Too many failed attempts. Please try again later.",
		)}, nil
	}

	userID := sess.Get(models.DataKeyResetUserID)
	record, _, err := e.directory.LookupUser(ctx, recoveryRole(sess), userID)
	if err != nil {
		return models.StateResetSecurityAnswer, nil, fmt.Errorf("recovery answer lookup failed: %w", err)
	}

	if !e.verifier.Verify(record.SecurityAnswer, ev.Text) {
		e.limiter.RecordFailure(sess.Key)
		slog.Warn("Recovery security answer rejected", "chat", sess.Key)
		return models.StateResetSecurityAnswer, []models.Reply{models.TextReply(
			"❌ Incorrect answer. Please try again.",
		)}, nil
	}

	e.limiter.Reset(sess.Key)
	slog.Info("Recovery security answer verified", "chat", sess.Key)
	return models.StateResetNewPassword, []models.Reply{models.TextReply(
		"✅ Security answer verified!\nPlease set a new password for your account:",
	)}, nil
}

// handleResetNewPassword stores the replacement password candidate. Unlike
// first-time setup, no length constraint applies here; the inconsistency is
// preserved from the system this replaces.
func (e *Engine) handleResetNewPassword(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	sess.Set(models.DataKeyPendingPassword, ev.Text)
	return models.StateResetConfirmPassword, []models.Reply{models.TextReply(
		"🔑 Please re-enter your new password to confirm:",
	)}, nil
}

// handleResetConfirmPassword commits the replacement password on an exact
// retype and routes back to role selection.
func (e *Engine) handleResetConfirmPassword(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	candidate := sess.Get(models.DataKeyPendingPassword)
	if ev.Text != candidate {
		sess.Delete(models.DataKeyPendingPassword)
		slog.Debug("Recovery password confirmation mismatch", "chat", sess.Key)
		return models.StateResetNewPassword, []models.Reply{models.TextReply(
			"❌ Passwords do not match. Please set your password again:",
		)}, nil
	}

	role := recoveryRole(sess)
	userID := sess.Get(models.DataKeyResetUserID)
	if err := e.directory.UpdatePassword(ctx, role, userID, candidate); err != nil {
		return models.StateResetConfirmPassword, nil, fmt.Errorf("password reset commit failed: %w", err)
	}

	// Keep the session's cached credential in sync when the reset targets
	// the identity already resolved for this chat.
	if sess.Get(models.DataKeyUserID) == userID {
		sess.Set(models.DataKeyPassword, candidate)
	}
	sess.Delete(models.DataKeyPendingPassword)
	sess.Delete(models.DataKeyResetUserID)

	slog.Info("Password reset committed", "chat", sess.Key, "role", role)
	return models.StateRoleSelect, []models.Reply{
		models.TextReply("✅ Your password has been reset successfully!"),
		roleSelectPrompt(),
	}, nil
}
