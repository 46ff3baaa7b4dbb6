package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/landgrants/agreement-backend/pkg/db/models"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

const invoicePrefix = "FRPS"

// Service issues invoices for accepted agreements.
type Service interface {
	Issue(ctx context.Context, agreementNumber, correlationID string) (*models.Invoice, error)
	ListByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the invoice service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Issue raises the next sequential invoice for the agreement. The sequence
// number is the table count at creation time, so two concurrent issues can
// race for the same number; the unique index rejects the loser.
// TODO: move numbering to a DB sequence once the schema owns it.
func (s *service) Issue(ctx context.Context, agreementNumber, correlationID string) (*models.Invoice, error) {
	if agreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting invoices: %w", err)
	}

	invoice := models.Invoice{
		ID:              uuid.New(),
		AgreementNumber: agreementNumber,
		InvoiceNumber:   fmt.Sprintf("%s%d", invoicePrefix, count),
		CorrelationID:   correlationID,
	}
	if err := s.repo.Create(ctx, &invoice); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"agreement_number": agreementNumber,
		"invoice_number":   invoice.InvoiceNumber,
	})
	s.logg.Info(logCtx, "invoice issued")
	return &invoice, nil
}

func (s *service) ListByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error) {
	if agreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}
	return s.repo.FindByAgreementNumber(ctx, agreementNumber)
}
