// Package messaging defines the chat gateway boundary for SchoolBot.
//
// The dialogue engine never talks to a chat network directly: it consumes
// inbound events from, and hands replies back through, the Service
// interface. Transport mechanics (connection handling, login, message
// encoding) live entirely behind it.
package messaging

import (
	"context"

	"github.com/edusuite/schoolbot/internal/models"
)

// Service is a pluggable chat transport.
type Service interface {
	// SendMessage delivers one reply to a chat, rendering any attached
	// keyboard the way the transport supports.
	SendMessage(ctx context.Context, chatID string, reply models.Reply) error

	// AnswerCallback acknowledges an inline button press so the client
	// stops showing a pending indicator. Transports without callback
	// semantics may no-op.
	AnswerCallback(ctx context.Context, callbackID string) error

	// Start begins background processing (event polling, connection upkeep).
	Start(ctx context.Context) error

	// Stop stops background processing and releases resources.
	Stop() error

	// Events returns the channel of inbound user events.
	Events() <-chan models.Event
}
