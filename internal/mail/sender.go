// Package mail sends transactional email through the Resend API when an API
// key is configured, falling back to plain SMTP otherwise.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email.
type Message struct {
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers a message to all recipients.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures the sender backend.
type Config struct {
	From         string
	ResendAPIKey string
	ResendURL    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
}

// NewSender picks the backend: Resend when a key is present, SMTP when a host
// is, and a logging no-op otherwise so environments without credentials still
// run.
func NewSender(cfg Config, logger zerolog.Logger) Sender {
	if cfg.ResendAPIKey != "" {
		return NewResendSender(cfg, logger)
	}
	if cfg.SMTPHost != "" {
		return &SMTPSender{Config: cfg}
	}
	logger.Warn().Msg("no mail backend configured, email delivery disabled")
	return NopSender{Logger: logger}
}

// NopSender drops messages, logging each one so misconfiguration is visible.
type NopSender struct {
	Logger zerolog.Logger
}

// Send implements Sender.
func (n NopSender) Send(_ context.Context, msg Message) error {
	n.Logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("mail discarded, no backend configured")
	return nil
}
