package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/landgrants/agreement-backend/api/controllers"
	"github.com/landgrants/agreement-backend/api/routes"
	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/internal/invoices"
	"github.com/landgrants/agreement-backend/internal/paymenthub"
	"github.com/landgrants/agreement-backend/internal/payments"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db"
	"github.com/landgrants/agreement-backend/pkg/events"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/metrics"
	"github.com/landgrants/agreement-backend/pkg/migrate"
	"github.com/landgrants/agreement-backend/pkg/pubsub"
	"github.com/landgrants/agreement-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.Storage, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
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
		Storage:    gcsClient,
		Logger:     logg,
		Config:     cfg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agreement service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:     cfg,
			Logger:     logg,
			Agreements: agreementService,
			Invoices:   invoiceService,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"pubsub":   pubsubClient,
				"storage":  gcsClient,
			},
			Registry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
