package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/internal/seed"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db"
	"github.com/landgrants/agreement-backend/pkg/events"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/migrate"
	"github.com/landgrants/agreement-backend/pkg/pubsub"
	"github.com/landgrants/agreement-backend/pkg/types"
)

type seedOffer struct {
	NotificationMessageID string                    `json:"notificationMessageId"`
	CorrelationID         string                    `json:"correlationId"`
	ClientRef             string                    `json:"clientRef"`
	Code                  string                    `json:"code"`
	AgreementNumber       string                    `json:"agreementNumber"`
	AgreementName         string                    `json:"agreementName"`
	Identifiers           types.Identifiers         `json:"identifiers"`
	ActionApplications    []types.ActionApplication `json:"actionApplications"`
	Applicant             *types.Applicant          `json:"applicant"`
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	file := flag.String("file", "", "path to a JSON array of offers to seed")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	raw, err := os.ReadFile(*file)
	if err != nil {
		logg.Error(context.Background(), "failed to read seed file", err)
		os.Exit(1)
	}
	var offers []seedOffer
	if err := json.Unmarshal(raw, &offers); err != nil {
		logg.Error(context.Background(), "failed to decode seed file", err)
		os.Exit(1)
	}

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

	publisher, err := events.NewPublisher(events.PublisherParams{
		Config: cfg.Eventing,
		Logger: logg,
		PubSub: pubsubClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event publisher", err)
		os.Exit(1)
	}

	agreementService, err := agreements.NewService(agreements.ServiceParams{
		Repo:      agreements.NewRepository(dbClient.DB(), logg),
		Publisher: publisher,
		Logger:    logg,
		Config:    cfg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create agreement service", err)
		os.Exit(1)
	}

	seeder, err := seed.NewSeeder(agreementService, cfg.Seeding, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create seeder", err)
		os.Exit(1)
	}

	inputs := make([]agreements.CreateOfferInput, 0, len(offers))
	for _, offer := range offers {
		inputs = append(inputs, agreements.CreateOfferInput{
			NotificationMessageID: offer.NotificationMessageID,
			CorrelationID:         offer.CorrelationID,
			ClientRef:             offer.ClientRef,
			Code:                  offer.Code,
			AgreementNumber:       offer.AgreementNumber,
			AgreementName:         offer.AgreementName,
			Identifiers:           offer.Identifiers,
			ActionApplications:    offer.ActionApplications,
			Applicant:             offer.Applicant,
			CreatedBy:             "seed",
		})
	}

	result, err := seeder.Run(context.Background(), inputs)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"created":  result.Created,
		"replayed": result.Replayed,
		"failed":   result.Failed,
	})
	if err != nil {
		logg.Error(ctx, "seeding finished with failures", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seeding complete")
}
