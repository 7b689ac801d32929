package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/pos_test",
		"REDIS_URL":    "redis://localhost:6379/0",
		"PORT":         "",
		"APP_ENV":      "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 60, cfg.CheckoutRateMax)
	require.Equal(t, "invoices", cfg.DeliveryQueue)
	require.False(t, cfg.SMTPConfigured())
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestLoadMailPrecedence(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":   "postgres://localhost/pos_test",
		"REDIS_URL":      "redis://localhost:6379/0",
		"SMTP_HOST":      "smtp.example.com",
		"SMTP_USER":      "billing@example.com",
		"SMTP_PASS":      "secret",
		"RESEND_API_KEY": "re_test",
		"MAIL_FROM":      "",
	})
	require.NoError(t, err)
	require.True(t, cfg.SMTPConfigured())
	require.Equal(t, "re_test", cfg.ResendAPIKey)
	require.Equal(t, "billing@example.com", cfg.MailFrom)
}
