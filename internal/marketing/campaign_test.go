package marketing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/mail"
)

type stubRecipients struct {
	recipients []billing.Recipient
	err        error
}

func (s stubRecipients) CustomerEmails(context.Context, string) ([]billing.Recipient, error) {
	return s.recipients, s.err
}

type flakySender struct {
	failFor map[string]bool
	inner   mail.MemorySender
}

func (f *flakySender) Send(ctx context.Context, msg mail.Message) error {
	if len(msg.To) == 1 && f.failFor[msg.To[0]] {
		return errors.New("bounce")
	}
	return f.inner.Send(ctx, msg)
}

func TestSendCampaignDeliversToAll(t *testing.T) {
	sender := &mail.MemorySender{}
	svc := &Service{
		Recipients: stubRecipients{recipients: []billing.Recipient{
			{Name: "Jo", Email: "jo@example.com"},
			{Name: "Sam", Email: "sam@example.com"},
		}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}

	result, err := svc.SendCampaign(context.Background(), CampaignInput{
		StoreID: "s-1", EventName: "Diwali", DiscountPercent: 15,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Sent)
	require.Equal(t, 2, result.TotalRecipients)

	sent := sender.Sent()
	require.Len(t, sent, 2)
	require.Contains(t, sent[0].Subject, "Diwali")
	require.Contains(t, sent[0].Subject, "15% OFF")
	require.Contains(t, sent[0].Text, "Welcome Jo")
	require.Contains(t, sent[0].HTML, "15% OFF")
}

func TestSendCampaignSkipsFailedAddresses(t *testing.T) {
	sender := &flakySender{failFor: map[string]bool{"bad@example.com": true}}
	svc := &Service{
		Recipients: stubRecipients{recipients: []billing.Recipient{
			{Name: "Jo", Email: "jo@example.com"},
			{Name: "Bad", Email: "bad@example.com"},
			{Name: "Sam", Email: "sam@example.com"},
		}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}

	result, err := svc.SendCampaign(context.Background(), CampaignInput{
		StoreID: "s-1", EventName: "Holi", DiscountPercent: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Sent)
	require.Equal(t, 3, result.TotalRecipients)
}

func TestSendCampaignNoRecipients(t *testing.T) {
	svc := &Service{Recipients: stubRecipients{}, Sender: &mail.MemorySender{}, Logger: zerolog.Nop()}

	result, err := svc.SendCampaign(context.Background(), CampaignInput{
		StoreID: "s-1", EventName: "Holi", DiscountPercent: 10,
	})
	require.NoError(t, err)
	require.Zero(t, result.Sent)
	require.Zero(t, result.TotalRecipients)
}

func TestCampaignHandlerValidation(t *testing.T) {
	h := &Handler{
		Service:  &Service{Recipients: stubRecipients{}, Sender: &mail.MemorySender{}, Logger: zerolog.Nop()},
		Validate: validator.New(),
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/marketing/campaign", strings.NewReader(`{"storeId":"s-1"}`))
	h.SendCampaign(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "discountPercent required")
}

func TestCampaignHandlerNoRecipientsMessage(t *testing.T) {
	h := &Handler{
		Service:  &Service{Recipients: stubRecipients{}, Sender: &mail.MemorySender{}, Logger: zerolog.Nop()},
		Validate: validator.New(),
	}

	body := `{"storeId":"s-1","eventName":"Diwali","discountPercent":20}`
	rec := httptest.NewRecorder()
	h.SendCampaign(rec, httptest.NewRequest(http.MethodPost, "/marketing/campaign", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No prior customers with email found")
}
