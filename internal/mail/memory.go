package mail

import (
	"context"
	"sync"
)

// MemorySender records messages for tests.
type MemorySender struct {
	mu   sync.Mutex
	Err  error
	sent []Message
}

// Send implements Sender.
func (m *MemorySender) Send(_ context.Context, msg Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the delivered messages.
func (m *MemorySender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
