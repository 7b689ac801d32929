package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over plain SMTP with STARTTLS.
type SMTPSender struct {
	Config Config
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.Config.From); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("mail: to addresses: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text != "" {
			m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
		} else {
			m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		}
	}
	for _, att := range msg.Attachments {
		opts := []gomail.FileOption{}
		if att.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(att.ContentType)))
		}
		m.AttachReader(att.Filename, bytes.NewReader(att.Content), opts...)
	}

	port := s.Config.SMTPPort
	if port == 0 {
		port = 587
	}
	client, err := gomail.NewClient(s.Config.SMTPHost,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.Config.SMTPUser),
		gomail.WithPassword(s.Config.SMTPPass),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: smtp send: %w", err)
	}
	return nil
}
