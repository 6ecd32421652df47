// Package dialog implements the conversation state machine for SchoolBot.
//
// The Engine consumes one inbound event at a time, dispatches to the
// transition handler bound to the session's current state, and persists the
// handler's next-state token against the session. Handlers return replies
// rather than sending them, so transitions stay testable without a live
// messaging gateway.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/edusuite/schoolbot/internal/auth"
	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/session"
	"github.com/edusuite/schoolbot/internal/sheets"
)

// Handler is one transition function: (session, event) to (next state,
// outbound replies). Read-only transitions are idempotent; write
// transitions commit exactly once per confirmed input.
type Handler func(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error)

// Commands exposed to the end user.
const (
	CommandStart          = "/start"
	CommandForgotPassword = "/forgot_password"
	CommandCancel         = "/cancel"
)

// User-facing messages for the error taxonomy. Raw error detail is logged,
// never sent to chat.
const (
	msgDataIntegrity    = "❌ Incomplete data found in the system. Please contact support."
	msgTransportTimeout = "❌ Unable to connect to the server. Please try again later."
	msgInternalError    = "❌ Something went wrong. Please try again later."
	msgUnhandledInput   = "❌ Invalid input. Please try again."
)

// Engine drives the dialogue state machine for every chat session.
type Engine struct {
	sessions  *session.Store
	directory *sheets.Directory
	verifier  auth.Verifier
	limiter   auth.AttemptLimiter
	handlers  map[models.StateType]Handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithVerifier overrides the credential verifier.
func WithVerifier(v auth.Verifier) Option {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithAttemptLimiter overrides the retry limiter applied at authentication
// and recovery transitions.
func WithAttemptLimiter(l auth.AttemptLimiter) Option {
	return func(e *Engine) {
		e.limiter = l
	}
}

// NewEngine creates the dialogue engine and binds every state to its
// transition handler.
func NewEngine(sessions *session.Store, directory *sheets.Directory, opts ...Option) *Engine {
	e := &Engine{
		sessions:  sessions,
		directory: directory,
		verifier:  auth.NewPlaintextVerifier(),
		limiter:   auth.NewNoopLimiter(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[models.StateType]Handler{
		models.StateRoleSelect:           e.handleRoleSelect,
		models.StateStudentAuth:          e.handleStudentAuth,
		models.StateTeacherAuth:          e.handleTeacherAuth,
		models.StatePasswordSetup:        e.handlePasswordSetup,
		models.StatePasswordSetupConfirm: e.handlePasswordSetupConfirm,
		models.StateSecurityQuestion:     e.handleSecurityQuestion,
		models.StateSecurityAnswer:       e.handleSecurityAnswer,
		models.StatePasswordConfirm:      e.handlePasswordConfirm,
		models.StateStudentMenu:          e.handleStudentMenu,
		models.StateTeacherMenu:          e.handleTeacherMenu,
		models.StateTextbookChoose:       e.handleTextbookChoose,
		models.StateVideoChoose:          e.handleVideoChoose,
		models.StateResultsChoose:        e.handleResultsChoose,
		models.StateUpload:               e.handleUpload,
		models.StatePerformance:          e.handlePerformance,
		models.StateLogoutConfirm:        e.handleLogoutConfirm,
		models.StateResetID:              e.handleResetID,
		models.StateResetSecurityAnswer:  e.handleResetSecurityAnswer,
		models.StateResetNewPassword:     e.handleResetNewPassword,
		models.StateResetConfirmPassword: e.handleResetConfirmPassword,
		models.StateEnd:                  e.handleEnd,
	}
	slog.Debug("Dialog engine created", "states", len(e.handlers))
	return e
}

// HandleEvent processes one inbound event for its chat session and returns
// the replies to send. The session's lock is held for the whole transition,
// so no two events for the same chat are ever processed concurrently.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) ([]models.Reply, error) {
	if ev.ChatID == "" {
		slog.Error("Engine HandleEvent missing chat id")
		return nil, models.ErrEmptyChatID
	}

	sess, unlock := e.sessions.Lock(ev.ChatID)
	defer unlock()

	slog.Debug("Engine HandleEvent", "chat", ev.ChatID, "state", sess.State, "callback", ev.IsCallback())

	// Commands and the inline recovery trigger divert the dialogue
	// regardless of what the current state expects.
	if next, replies, ok := e.routeInterrupt(sess, ev); ok {
		sess.State = next
		return replies, nil
	}

	handler, ok := e.handlers[sess.State]
	if !ok {
		slog.Error("Engine no handler bound for state", "chat", ev.ChatID, "state", sess.State)
		sess.State = models.StateRoleSelect
		return []models.Reply{models.TextReply(msgInternalError)}, nil
	}

	next, replies, err := handler(ctx, sess, ev)
	if err != nil {
		return e.mapError(sess, err), nil
	}

	if sess.State != next {
		slog.Info("Engine state transition", "chat", ev.ChatID, "from", sess.State, "to", next)
	}
	sess.State = next
	return replies, nil
}

// routeInterrupt handles slash commands and the inline Forgot Password
// trigger. Returns ok=false when the event should flow to the state handler.
func (e *Engine) routeInterrupt(sess *session.Session, ev models.Event) (models.StateType, []models.Reply, bool) {
	if ev.IsCallback() && ev.Callback == models.CallbackForgotPassword {
		slog.Info("Engine recovery trigger pressed", "chat", sess.Key, "state", sess.State)
		return models.StateResetID, []models.Reply{resetIDPrompt()}, true
	}

	switch strings.TrimSpace(ev.Text) {
	case CommandStart:
		slog.Info("Engine /start received", "chat", sess.Key)
		sess.Reset()
		return models.StateRoleSelect, []models.Reply{roleSelectPrompt()}, true
	case CommandForgotPassword:
		slog.Info("Engine /forgot_password received", "chat", sess.Key)
		return models.StateResetID, []models.Reply{resetIDPrompt()}, true
	case CommandCancel:
		slog.Info("Engine /cancel received", "chat", sess.Key)
		sess.Reset()
		return models.StateRoleSelect, []models.Reply{models.TextReply("Operation canceled.")}, true
	}
	return "", nil, false
}

// mapError logs the failure with context and converts it into a user-facing
// reply per the error taxonomy. Fatal and transport errors end the dialogue
// attempt; the session returns to role selection on the next /start.
func (e *Engine) mapError(sess *session.Session, err error) []models.Reply {
	switch {
	case errors.Is(err, models.ErrDataIntegrity):
		slog.Error("Engine data integrity failure", "chat", sess.Key, "state", sess.State, "error", err)
		sess.State = models.StateEnd
		return []models.Reply{models.TextReply(msgDataIntegrity)}
	case errors.Is(err, models.ErrTransportTimeout):
		slog.Error("Engine datastore timeout", "chat", sess.Key, "state", sess.State, "error", err)
		sess.State = models.StateEnd
		return []models.Reply{models.TextReply(msgTransportTimeout)}
	default:
		slog.Error("Engine unexpected handler failure", "chat", sess.Key, "state", sess.State, "error", err)
		sess.State = models.StateEnd
		return []models.Reply{models.TextReply(msgInternalError)}
	}
}

// handleEnd keeps terminated sessions parked until the user restarts.
func (e *Engine) handleEnd(ctx context.Context, sess *session.Session, ev models.Event) (models.StateType, []models.Reply, error) {
	return models.StateEnd, []models.Reply{models.TextReply("Restart the bot with /start when you're ready.")}, nil
}

// Sessions exposes the session store for the admin surface.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}
