package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/landgrants/agreement-backend/internal/agreements"
	consumers "github.com/landgrants/agreement-backend/internal/consumers/agreements"
	"github.com/landgrants/agreement-backend/internal/invoices"
	"github.com/landgrants/agreement-backend/internal/paymenthub"
	"github.com/landgrants/agreement-backend/internal/payments"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db"
	"github.com/landgrants/agreement-backend/pkg/events"
	"github.com/landgrants/agreement-backend/pkg/events/idempotency"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/metrics"
	"github.com/landgrants/agreement-backend/pkg/migrate"
	"github.com/landgrants/agreement-backend/pkg/pubsub"
	"github.com/landgrants/agreement-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "event-consumer"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "event-consumer",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	publisher, err := events.NewPublisher(events.PublisherParams{
		Config:  cfg.Eventing,
		Logger:  logg,
		PubSub:  pubsubClient,
		Metrics: metrics.NewEventPublishMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event publisher", err)
		os.Exit(1)
	}

	calculator, err := payments.NewCalculator(cfg.PaymentsAPI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment calculator", err)
		os.Exit(1)
	}

	hubClient, err := paymenthub.NewClient(cfg.PaymentHub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment hub client", err)
		os.Exit(1)
	}

	invoiceService, err := invoices.NewService(invoices.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	agreementService, err := agreements.NewService(agreements.ServiceParams{
		Repo:       agreements.NewRepository(dbClient.DB(), logg),
		Calculator: calculator,
		Hub:        hubClient,
		Invoices:   invoiceService,
		Publisher:  publisher,
		Logger:     logg,
		Config:     cfg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agreement service", err)
		os.Exit(1)
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := consumers.NewConsumer(agreementService, manager, metrics.NewConsumerMetrics(registry), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"subscription": cfg.PubSub.TriggersSubscription,
	})
	logg.Info(logCtx, "starting trigger consumer")

	if err := consumer.Run(ctx, pubsubClient.TriggersSubscription()); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(logCtx, "trigger consumer stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(logCtx, "trigger consumer shut down")
}
