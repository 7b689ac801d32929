package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrationsDir      string
	MetricsToken       string

	// Mail delivery. When ResendAPIKey is set the Resend HTTP API is
	// preferred; otherwise SMTP is used when configured.
	MailFrom     string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string

	// Insight text generation.
	GeminiAPIKey  string
	GeminiBaseURL string

	// Caching and coordination.
	CatalogCacheTTL time.Duration
	ReportCacheTTL  time.Duration
	IdempotencyTTL  time.Duration
	LockTTL         time.Duration
	LockRetry       time.Duration

	// Checkout rate limiting.
	CheckoutRateMax    int
	CheckoutRateWindow time.Duration

	// Invoice delivery queue.
	DeliveryQueue       string
	DeliveryMaxRetry    int
	DeliveryConcurrency int

	// Outbound HTTP resilience.
	OutboundTimeout    time.Duration
	RetryBase          time.Duration
	RetryMaxAttempts   int
	RetryJitterPercent float64
	CircuitMinReq      int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration

	// Marketing campaign fan-out.
	CampaignBatchSize int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),
		MetricsToken:       strings.TrimSpace(k.String("METRICS_TOKEN")),

		MailFrom:     valueOrDefault(k.String("MAIL_FROM"), k.String("SMTP_USER")),
		ResendAPIKey: strings.TrimSpace(k.String("RESEND_API_KEY")),
		SMTPHost:     strings.TrimSpace(k.String("SMTP_HOST")),
		SMTPPort:     intOrDefault(k.Int("SMTP_PORT"), 587),
		SMTPUser:     k.String("SMTP_USER"),
		SMTPPass:     k.String("SMTP_PASS"),

		GeminiAPIKey:  strings.TrimSpace(k.String("GEMINI_API_KEY")),
		GeminiBaseURL: valueOrDefault(k.String("GEMINI_BASE_URL"), "https://generativelanguage.googleapis.com/v1beta/models"),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		ReportCacheTTL:  parseDuration(k.String("REPORT_CACHE_TTL"), "2m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:         parseDuration(k.String("LOCK_TTL"), "30s"),
		LockRetry:       parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),

		CheckoutRateMax:    intOrDefault(k.Int("CHECKOUT_RATE_MAX"), 60),
		CheckoutRateWindow: parseDuration(k.String("CHECKOUT_RATE_WINDOW"), "1m"),

		DeliveryQueue:       valueOrDefault(k.String("DELIVERY_QUEUE"), "invoices"),
		DeliveryMaxRetry:    intOrDefault(k.Int("DELIVERY_MAX_RETRY"), 5),
		DeliveryConcurrency: intOrDefault(k.Int("DELIVERY_CONCURRENCY"), 4),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "30s"),
		RetryBase:          parseDuration(k.String("RETRY_BASE"), "1s"),
		RetryMaxAttempts:   intOrDefault(k.Int("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent: floatOrDefault(k.Float64("RETRY_JITTER_PERCENT"), 0.2),
		CircuitMinReq:      intOrDefault(k.Int("CIRCUIT_MIN_REQUESTS"), 5),
		CircuitFailureRate: floatOrDefault(k.Float64("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		CampaignBatchSize: intOrDefault(k.Int("CAMPAIGN_BATCH_SIZE"), 50),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// SMTPConfigured reports whether SMTP credentials are usable.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func floatOrDefault(value, fallback float64) float64 {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
