package mail

import (
	"context"
	"log/slog"
	"sync"
)

// ConsoleMailer logs messages instead of delivering them. Used in
// development and tests; sent messages are retained for assertions.
type ConsoleMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

// NewConsoleMailer constructs a console mailer.
func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

// Send records the message and logs it.
func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.logger != nil {
		m.logger.Info("mail (console)", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	}
	return nil
}

// Sent returns a copy of every message sent so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
