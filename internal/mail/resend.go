package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/resilience"
)

const defaultResendURL = "https://api.resend.com/emails"

// ResendSender delivers mail through the Resend HTTP API. Attachments travel
// base64-encoded in the JSON body.
type ResendSender struct {
	APIKey string
	From   string
	URL    string
	HTTP   resilience.HTTPClient
}

// NewResendSender builds a sender with retry and breaker defaults suited to a
// third-party mail API.
func NewResendSender(cfg Config, logger zerolog.Logger) *ResendSender {
	url := cfg.ResendURL
	if url == "" {
		url = defaultResendURL
	}
	return &ResendSender{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.From,
		URL:    url,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Timeout: 30 * time.Second},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
			BaseBackoff: time.Second,
			MaxAttempts: 3,
			Jitter:      0.2,
			Target:      "resend",
			Logger:      &logger,
		},
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	payload := resendPayload{
		From:    s.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	if payload.HTML == "" && msg.Text != "" {
		payload.HTML = "<pre>" + msg.Text + "</pre>"
	}
	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mail: encode resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("mail: resend request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail: resend api status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
