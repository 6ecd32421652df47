// Package models defines the core data structures for SchoolBot.
//
// It includes roles, dialogue events, reply payloads, and the shared error
// taxonomy used across the dialog engine and the sheet-backed datastore.
package models

import (
	"errors"
	"strings"
)

// Role identifies which user population a session belongs to.
type Role string

const (
	// RoleStudent marks a session authenticated against the students sheet.
	RoleStudent Role = "student"
	// RoleTeacher marks a session authenticated against the teachers sheet.
	RoleTeacher Role = "teacher"
)

// IsValidRole checks if the given role is supported.
func IsValidRole(r Role) bool {
	return r == RoleStudent || r == RoleTeacher
}

// ParseRole normalizes free text into a Role. The second return value
// reports whether the input named a known role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, true
	case "teacher":
		return RoleTeacher, true
	default:
		return "", false
	}
}

// Title returns the role with its first letter capitalized, as used in the
// logout confirmation phrase ("Student Logout").
func (r Role) Title() string {
	if r == "" {
		return "User"
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Password length bounds enforced during first-time setup. The recovery
// sub-flow intentionally does not apply them (see dialog/recovery.go).
const (
	MinPasswordLength = 4
	MaxPasswordLength = 8
)

// CallbackForgotPassword is the callback token carried by the inline
// "Forgot Password" button shown alongside the password prompt.
const CallbackForgotPassword = "forgot_password"

// Error taxonomy shared between the sheets datastore and the dialog engine.
var (
	// ErrNotFound indicates the supplied identifier has no row in the
	// datastore. Recoverable: the user is re-prompted.
	ErrNotFound = errors.New("record not found")
	// ErrDataIntegrity indicates a row exists but is shorter than its
	// declared schema. Fatal to the session.
	ErrDataIntegrity = errors.New("row is missing required columns")
	// ErrTransportTimeout indicates the datastore was unreachable.
	// Recoverable at the session level: the current dialogue attempt ends.
	ErrTransportTimeout = errors.New("datastore connection timed out")
	// ErrPasswordLength indicates a setup password outside the 4-8 range.
	ErrPasswordLength = errors.New("password must be between 4 and 8 characters")
	// ErrEmptySheet indicates an operation named an unknown sheet.
	ErrEmptySheet = errors.New("sheet name cannot be empty")
	// ErrEmptyChatID indicates an event or send without a chat identity.
	ErrEmptyChatID = errors.New("chat id cannot be empty")
)

// Event is one inbound unit of user input: either free text or an inline
// button press. Exactly one of Text or Callback is meaningful per event.
type Event struct {
	ChatID     string `json:"chat_id"`
	Text       string `json:"text,omitempty"`
	Callback   string `json:"callback,omitempty"`
	CallbackID string `json:"callback_id,omitempty"`
	Time       int64  `json:"time"`
}

// IsCallback reports whether the event is an inline button press.
func (e Event) IsCallback() bool {
	return e.Callback != ""
}

// ReplyMarkup describes a keyboard attached to an outbound reply: rows of
// button labels, rendered either as a reply keyboard or inline buttons with
// callback tokens.
type ReplyMarkup struct {
	Rows     [][]string `json:"rows"`
	Inline   bool       `json:"inline,omitempty"`
	Callback string     `json:"callback,omitempty"` // callback token for inline buttons
}

// Reply is one outbound message produced by a transition handler.
type Reply struct {
	Body   string       `json:"body"`
	Markup *ReplyMarkup `json:"markup,omitempty"`
}

// TextReply builds a plain reply with no keyboard.
func TextReply(body string) Reply {
	return Reply{Body: body}
}

// KeyboardReply builds a reply carrying a reply-keyboard of label rows.
func KeyboardReply(body string, rows ...[]string) Reply {
	return Reply{Body: body, Markup: &ReplyMarkup{Rows: rows}}
}

// InlineReply builds a reply carrying a single inline button tagged with a
// callback token.
func InlineReply(body, label, callback string) Reply {
	return Reply{Body: body, Markup: &ReplyMarkup{
		Rows:     [][]string{{label}},
		Inline:   true,
		Callback: callback,
	}}
}
