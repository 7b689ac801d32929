package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/delivery"
	"github.com/noah-isme/backend-pos/internal/mail"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// The worker drains the invoice delivery queue: it renders the PDF for each
// committed bill and emails it to the customer.
func main() {
	cfg := config.MustLoad()
	decimal.MarshalJSONWithoutQuotes = true

	logger := obs.NewLogger("json", "info").With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("pos", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	sender := mail.NewSender(mail.Config{
		From:         cfg.MailFrom,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPass:     cfg.SMTPPass,
	}, logger)

	worker := &delivery.Worker{
		Bills:  billing.PoolReader{DB: pool, Store: billing.Store{}},
		Sender: sender,
		Logger: logger,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: cfg.DeliveryConcurrency,
			Queues:      map[string]int{cfg.DeliveryQueue: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(delivery.TaskInvoiceEmail, worker.HandleInvoiceEmail)

	logger.Info().Str("queue", cfg.DeliveryQueue).Int("concurrency", cfg.DeliveryConcurrency).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}
