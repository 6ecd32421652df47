package messaging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edusuite/schoolbot/internal/models"
	"github.com/edusuite/schoolbot/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// Constants for WhatsAppService configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp client.
//
// WhatsApp has no native keyboards or inline buttons, so markup is rendered
// into the message body as numbered option lines. Inline button labels are
// remembered per chat: when the next inbound text matches a remembered label,
// the service emits a callback event instead of a text event.
type WhatsAppService struct {
	client   whatsapp.Sender
	waClient *whatsapp.Client // underlying client for event handling, nil for mocks
	events   chan models.Event
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]map[string]string // chat id -> lowercased label -> callback token
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given Sender.
func NewWhatsAppService(client whatsapp.Sender) *WhatsAppService {
	service := &WhatsAppService{
		client:  client,
		events:  make(chan models.Event, DefaultChannelBufferSize),
		done:    make(chan struct{}),
		pending: make(map[string]map[string]string),
	}

	if waClient, ok := client.(*whatsapp.Client); ok {
		service.waClient = waClient
		slog.Debug("WhatsAppService created with full client for event handling")
	} else {
		slog.Debug("WhatsAppService created with interface client (likely mock)")
	}

	return service
}

// Start begins background event processing.
func (s *WhatsAppService) Start(ctx context.Context) error {
	slog.Debug("WhatsAppService Start invoked")

	if s.waClient != nil {
		go s.handleEvents(ctx)
		slog.Debug("WhatsAppService event handler started")
	} else {
		slog.Debug("WhatsAppService no full client available, skipping event handling (likely mock)")
	}

	return nil
}

// Stop stops background processing.
func (s *WhatsAppService) Stop() error {
	slog.Info("WhatsAppService Stop invoked")
	close(s.done)
	close(s.events)
	return nil
}

// SendMessage renders the reply into WhatsApp text and delivers it.
func (s *WhatsAppService) SendMessage(ctx context.Context, chatID string, reply models.Reply) error {
	if chatID == "" {
		return models.ErrEmptyChatID
	}

	body := RenderReply(reply)
	slog.Debug("WhatsAppService SendMessage invoked", "to", chatID, "body_length", len(body))

	if err := s.client.SendMessage(ctx, chatID, body); err != nil {
		slog.Error("WhatsAppService SendMessage error", "error", err, "to", chatID)
		return err
	}

	s.trackInlineButtons(chatID, reply)
	return nil
}

// AnswerCallback is a no-op: WhatsApp button presses arrive as plain text and
// need no acknowledgement.
func (s *WhatsAppService) AnswerCallback(ctx context.Context, callbackID string) error {
	return nil
}

// Events returns the channel of inbound user events.
func (s *WhatsAppService) Events() <-chan models.Event {
	return s.events
}

// RenderReply flattens a reply's keyboard into the message body. Reply
// keyboards become bulleted option lines; inline buttons become a tap-to-type
// hint line.
func RenderReply(reply models.Reply) string {
	if reply.Markup == nil || len(reply.Markup.Rows) == 0 {
		return reply.Body
	}

	var b strings.Builder
	b.WriteString(reply.Body)
	b.WriteString("\n")
	for _, row := range reply.Markup.Rows {
		for _, label := range row {
			b.WriteString("\n▫️ ")
			b.WriteString(label)
		}
	}
	if reply.Markup.Inline {
		b.WriteString("\n\nReply with an option above to select it.")
	}
	return b.String()
}

// trackInlineButtons remembers inline button labels for the chat so the next
// matching inbound text is surfaced as a callback event. Each new inline
// reply replaces the chat's previous set.
func (s *WhatsAppService) trackInlineButtons(chatID string, reply models.Reply) {
	if reply.Markup == nil || !reply.Markup.Inline || reply.Markup.Callback == "" {
		return
	}

	labels := make(map[string]string)
	for _, row := range reply.Markup.Rows {
		for _, label := range row {
			labels[strings.ToLower(strings.TrimSpace(label))] = reply.Markup.Callback
		}
	}

	s.mu.Lock()
	s.pending[chatID] = labels
	s.mu.Unlock()
	slog.Debug("WhatsAppService tracking inline buttons", "chat", chatID, "labels", len(labels))
}

// callbackFor resolves inbound text against the chat's remembered inline
// labels, consuming the match.
func (s *WhatsAppService) callbackFor(chatID, text string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels, ok := s.pending[chatID]
	if !ok {
		return "", false
	}
	token, ok := labels[strings.ToLower(strings.TrimSpace(text))]
	if !ok {
		return "", false
	}
	delete(s.pending, chatID)
	return token, true
}

// handleEvents registers the whatsmeow event handler and runs until the
// context is cancelled.
func (s *WhatsAppService) handleEvents(ctx context.Context) {
	slog.Debug("WhatsAppService handleEvents starting")

	if s.waClient == nil || s.waClient.GetClient() == nil {
		slog.Error("WhatsAppService handleEvents: no client available")
		return
	}

	s.waClient.GetClient().AddEventHandler(func(evt interface{}) {
		if msg, ok := evt.(*events.Message); ok {
			s.handleIncomingMessage(msg)
		}
	})

	slog.Debug("WhatsAppService event handler registered")

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	slog.Debug("WhatsAppService handleEvents stopping")
}

// handleIncomingMessage converts an inbound text message into an Event.
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	var text string
	switch {
	case evt.Message.Conversation != nil:
		text = *evt.Message.Conversation
	case evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil:
		text = *evt.Message.ExtendedTextMessage.Text
	default:
		// Skip non-text messages (images, audio, etc.)
		slog.Debug("WhatsAppService ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	chatID := evt.Info.Sender.User
	event := models.Event{
		ChatID: chatID,
		Time:   evt.Info.Timestamp.Unix(),
	}
	if token, ok := s.callbackFor(chatID, text); ok {
		event.Callback = token
	} else {
		event.Text = text
	}

	select {
	case s.events <- event:
		slog.Debug("WhatsAppService incoming event forwarded", "from", chatID, "callback", event.IsCallback())
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService event channel blocked, dropping message", "from", chatID, "timeout", DefaultChannelTimeout)
	}
}
