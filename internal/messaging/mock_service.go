package messaging

import (
	"context"
	"sync"

	"github.com/edusuite/schoolbot/internal/models"
)

// MockService is an in-memory Service for tests. Inbound events are injected
// with Inject; outbound replies are recorded per chat.
type MockService struct {
	events chan models.Event

	mu        sync.Mutex
	sent      map[string][]models.Reply
	answered  []string
	SendError error // returned by SendMessage when set
}

// NewMockService creates a mock service with a buffered event channel.
func NewMockService() *MockService {
	return &MockService{
		events: make(chan models.Event, DefaultChannelBufferSize),
		sent:   make(map[string][]models.Reply),
	}
}

// Inject feeds an inbound event into the service's channel.
func (m *MockService) Inject(ev models.Event) {
	m.events <- ev
}

// SendMessage records the reply for later inspection.
func (m *MockService) SendMessage(ctx context.Context, chatID string, reply models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendError != nil {
		return m.SendError
	}
	m.sent[chatID] = append(m.sent[chatID], reply)
	return nil
}

// AnswerCallback records the acknowledged callback id.
func (m *MockService) AnswerCallback(ctx context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

// Start is a no-op.
func (m *MockService) Start(ctx context.Context) error { return nil }

// Stop closes the event channel.
func (m *MockService) Stop() error {
	close(m.events)
	return nil
}

// Events returns the injectable event channel.
func (m *MockService) Events() <-chan models.Event {
	return m.events
}

// Sent returns a copy of the replies recorded for the chat.
func (m *MockService) Sent(chatID string) []models.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Reply, len(m.sent[chatID]))
	copy(out, m.sent[chatID])
	return out
}

// Answered returns the callback ids acknowledged so far.
func (m *MockService) Answered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.answered))
	copy(out, m.answered)
	return out
}
