package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestResendSenderPostsPayload(t *testing.T) {
	var got resendPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewResendSender(Config{
		From:         "store@example.com",
		ResendAPIKey: "rk-test",
		ResendURL:    srv.URL,
	}, zerolog.Nop())

	err := sender.Send(context.Background(), Message{
		To:      []string{"jo@example.com"},
		Subject: "Your invoice",
		Text:    "thanks",
		Attachments: []Attachment{
			{Filename: "invoice.pdf", Content: []byte("%PDF-fake")},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "Bearer rk-test", auth)
	require.Equal(t, "store@example.com", got.From)
	require.Equal(t, []string{"jo@example.com"}, got.To)
	require.Equal(t, "<pre>thanks</pre>", got.HTML, "text promoted to html body")
	require.Len(t, got.Attachments, 1)
	require.Equal(t, "invoice.pdf", got.Attachments[0].Filename)
	require.NotEmpty(t, got.Attachments[0].Content)
}

func TestResendSenderSurfaces4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	sender := NewResendSender(Config{ResendAPIKey: "rk", ResendURL: srv.URL}, zerolog.Nop())
	err := sender.Send(context.Background(), Message{To: []string{"jo@example.com"}, Subject: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")
}

func TestNewSenderPrecedence(t *testing.T) {
	logger := zerolog.Nop()

	s := NewSender(Config{ResendAPIKey: "rk", SMTPHost: "smtp.example.com"}, logger)
	require.IsType(t, &ResendSender{}, s, "resend wins when both are configured")

	s = NewSender(Config{SMTPHost: "smtp.example.com"}, logger)
	require.IsType(t, &SMTPSender{}, s)

	s = NewSender(Config{}, logger)
	require.IsType(t, NopSender{}, s)
}
