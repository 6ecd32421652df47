package messaging

import (
	"context"
	"log/slog"

	"github.com/edusuite/schoolbot/internal/models"
)

// Engine is the dialogue entry point the dispatcher feeds events into.
// Implemented by dialog.Engine.
type Engine interface {
	HandleEvent(ctx context.Context, ev models.Event) ([]models.Reply, error)
}

// Dispatcher pumps inbound events from a Service into the dialogue engine and
// delivers the resulting replies back through the same service. Events for
// different chats are processed sequentially in arrival order; per-chat
// serialization is enforced by the engine's session locking.
type Dispatcher struct {
	service Service
	engine  Engine
}

// NewDispatcher creates a dispatcher wiring the given service and engine.
func NewDispatcher(service Service, engine Engine) *Dispatcher {
	return &Dispatcher{service: service, engine: engine}
}

// Run consumes events until the context is cancelled or the service's event
// channel closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("Dispatcher starting")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Dispatcher stopping due to context cancellation")
			return ctx.Err()
		case ev, ok := <-d.service.Events():
			if !ok {
				slog.Info("Dispatcher stopping, event channel closed")
				return nil
			}
			d.dispatch(ctx, ev)
		}
	}
}

// dispatch routes one event through the engine and sends every reply. A
// failed send is logged and does not abort the remaining replies.
func (d *Dispatcher) dispatch(ctx context.Context, ev models.Event) {
	replies, err := d.engine.HandleEvent(ctx, ev)
	if err != nil {
		slog.Error("Dispatcher event handling failed", "error", err, "chat", ev.ChatID)
	}

	if ev.CallbackID != "" {
		if err := d.service.AnswerCallback(ctx, ev.CallbackID); err != nil {
			slog.Error("Dispatcher callback answer failed", "error", err, "chat", ev.ChatID)
		}
	}

	for _, reply := range replies {
		if err := d.service.SendMessage(ctx, ev.ChatID, reply); err != nil {
			slog.Error("Dispatcher reply send failed", "error", err, "chat", ev.ChatID)
		}
	}
}
