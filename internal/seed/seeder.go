package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

type offerCreator interface {
	CreateOffer(ctx context.Context, input agreements.CreateOfferInput) (*agreements.CreateOfferResult, error)
}

// Seeder bulk-loads offers through the lifecycle engine in fixed-size
// batches with bounded in-batch concurrency, keeping database connection
// pressure flat regardless of input size.
type Seeder struct {
	service     offerCreator
	logg        *logger.Logger
	batchSize   int
	concurrency int
}

// NewSeeder wires a seeder. Concurrency is clamped to the configured maximum.
func NewSeeder(service offerCreator, cfg config.SeedingConfig, logg *logger.Logger) (*Seeder, error) {
	if service == nil {
		return nil, errors.New("offer creator is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if cfg.MaxConcurrency > 0 && concurrency > cfg.MaxConcurrency {
		concurrency = cfg.MaxConcurrency
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	return &Seeder{
		service:     service,
		logg:        logg,
		batchSize:   batchSize,
		concurrency: concurrency,
	}, nil
}

// Result summarises one seeding run.
type Result struct {
	Created  int
	Replayed int
	Failed   int
}

// Run creates every offer, batch by batch. Individual failures are collected
// and reported together; one bad offer never aborts the run.
func (s *Seeder) Run(ctx context.Context, inputs []agreements.CreateOfferInput) (Result, error) {
	var (
		mu     sync.Mutex
		result Result
		runErr error
	)

	for start := 0; start < len(inputs); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + s.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := inputs[start:end]

		sem := make(chan struct{}, s.concurrency)
		var wg sync.WaitGroup
		for _, input := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(input agreements.CreateOfferInput) {
				defer wg.Done()
				defer func() { <-sem }()

				created, err := s.seedOne(ctx, input)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					result.Failed++
					runErr = multierr.Append(runErr, fmt.Errorf("seeding %s: %w", input.AgreementNumber, err))
				case created:
					result.Created++
				default:
					result.Replayed++
				}
			}(input)
		}
		wg.Wait()

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"batch_start": start,
			"batch_size":  len(batch),
		})
		s.logg.Info(logCtx, "seed batch complete")
	}

	return result, runErr
}

func (s *Seeder) seedOne(ctx context.Context, input agreements.CreateOfferInput) (bool, error) {
	res, err := s.service.CreateOffer(ctx, input)
	if err != nil {
		return false, err
	}
	return res.Created, nil
}
