// Package marketing sends promotional campaigns to a store's past customers.
package marketing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/mail"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// RecipientSource lists a store's reachable past customers, deduplicated by
// email.
type RecipientSource interface {
	CustomerEmails(ctx context.Context, storeID string) ([]billing.Recipient, error)
}

// PGRecipients binds the bill store to a DB handle as a RecipientSource.
type PGRecipients struct {
	DB    repo.DB
	Bills billing.Store
}

// CustomerEmails implements RecipientSource.
func (p PGRecipients) CustomerEmails(ctx context.Context, storeID string) ([]billing.Recipient, error) {
	return p.Bills.CustomerEmails(ctx, p.DB, storeID)
}

// CampaignInput describes one promotional blast.
type CampaignInput struct {
	StoreID         string `json:"storeId" validate:"required"`
	EventName       string `json:"eventName" validate:"required"`
	DiscountPercent int    `json:"discountPercent" validate:"required,gt=0,lte=100"`
}

// CampaignResult reports how the blast went.
type CampaignResult struct {
	Sent            int `json:"sent"`
	TotalRecipients int `json:"totalRecipients"`
}

// Service sends campaigns in batches. Individual send failures are logged
// and skipped so one bad address cannot sink the blast.
type Service struct {
	Recipients RecipientSource
	Sender     mail.Sender
	Logger     zerolog.Logger
	BatchSize  int
	Now        func() time.Time
	// Locker serialises campaigns per store so a double-submitted request
	// cannot blast customers twice. Optional; nil means no locking.
	Locker  *lock.Locker
	LockTTL time.Duration
}

func (s *Service) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return 50
}

func (s *Service) year() int {
	if s.Now != nil {
		return s.Now().Year()
	}
	return time.Now().Year()
}

// SendCampaign delivers the promotion to every distinct past customer of the
// store.
func (s *Service) SendCampaign(ctx context.Context, in CampaignInput) (CampaignResult, error) {
	if s.Locker == nil {
		return s.sendCampaign(ctx, in)
	}
	var result CampaignResult
	err := s.Locker.WithLock(ctx, "campaign:"+in.StoreID, s.LockTTL, func(ctx context.Context) error {
		var err error
		result, err = s.sendCampaign(ctx, in)
		return err
	})
	return result, err
}

func (s *Service) sendCampaign(ctx context.Context, in CampaignInput) (CampaignResult, error) {
	recipients, err := s.Recipients.CustomerEmails(ctx, in.StoreID)
	if err != nil {
		return CampaignResult{}, err
	}
	result := CampaignResult{TotalRecipients: len(recipients)}
	if len(recipients) == 0 {
		return result, nil
	}

	subject := fmt.Sprintf("%s Celebration - %d%% OFF for our valued buyers", in.EventName, in.DiscountPercent)
	size := s.batchSize()
	for start := 0; start < len(recipients); start += size {
		end := start + size
		if end > len(recipients) {
			end = len(recipients)
		}
		for _, rcpt := range recipients[start:end] {
			msg := mail.Message{
				To:      []string{rcpt.Email},
				Subject: subject,
				Text: fmt.Sprintf("Welcome %s, On the occasion of %s, our previous buyers will get %d%% discount on every item. Come and visit your nearest stores.",
					rcpt.Name, in.EventName, in.DiscountPercent),
				HTML: campaignHTML(rcpt.Name, in.EventName, in.DiscountPercent, s.year()),
			}
			if err := s.Sender.Send(ctx, msg); err != nil {
				observeCampaign("error")
				s.Logger.Error().Err(err).Str("email", rcpt.Email).Msg("campaign email failed")
				continue
			}
			observeCampaign("sent")
			result.Sent++
		}
	}

	s.Logger.Info().
		Str("store_id", in.StoreID).
		Str("event", in.EventName).
		Int("sent", result.Sent).
		Int("total_recipients", result.TotalRecipients).
		Msg("campaign processed")
	return result, nil
}

func campaignHTML(name, eventName string, discount, year int) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; background:#f7f7fb; padding:24px;">
  <div style="max-width:640px; margin:0 auto; background:#ffffff; border-radius:12px; overflow:hidden;">
    <div style="background:linear-gradient(135deg,#6d5efc,#8a7dff); color:#fff; padding:24px 28px;">
      <h1 style="margin:0; font-size:22px;">Special Celebration Offer</h1>
      <p style="margin:6px 0 0;">Exclusive for our valued customers</p>
    </div>
    <div style="padding:28px;">
      <p style="font-size:16px; color:#333;"><strong>Welcome %s</strong>,</p>
      <p style="font-size:16px; color:#333;">
        On the occasion of <strong>%s</strong>, our previous buyers will get
        <span style="background:#fff5cc; padding:2px 6px; border-radius:6px; font-weight:600;">%d%% OFF</span>
        on every item!
      </p>
      <p style="font-size:15px; color:#334;">Come and visit your nearest stores to enjoy this offer.</p>
    </div>
    <div style="background:#fbfbfd; color:#777; padding:14px 20px; font-size:12px; text-align:center;">
      &copy; %d Your Store. All rights reserved.
    </div>
  </div>
</div>`, name, eventName, discount, year)
}

func observeCampaign(result string) {
	if obs.CampaignEmailsTotal != nil {
		obs.CampaignEmailsTotal.WithLabelValues(result).Inc()
	}
}
