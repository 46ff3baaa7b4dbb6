package invoices

import (
	"context"
	"testing"

	"github.com/landgrants/agreement-backend/pkg/db/models"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

type stubRepo struct {
	count   int64
	created []*models.Invoice
	err     error
}

func (s *stubRepo) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func (s *stubRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	s.created = append(s.created, invoice)
	s.count++
	return nil
}

func (s *stubRepo) FindByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range s.created {
		if inv.AgreementNumber == agreementNumber {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return svc
}

func TestIssueNumbersFromTableCount(t *testing.T) {
	repo := &stubRepo{count: 0}
	svc := newTestService(t, repo)

	first, err := svc.Issue(context.Background(), "SFI123456789", "corr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.InvoiceNumber != "FRPS0" {
		t.Fatalf("expected FRPS0, got %s", first.InvoiceNumber)
	}

	second, err := svc.Issue(context.Background(), "SFI123456789", "corr-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.InvoiceNumber != "FRPS1" {
		t.Fatalf("expected FRPS1, got %s", second.InvoiceNumber)
	}
	if second.CorrelationID != "corr-2" {
		t.Fatalf("correlation id not carried: %s", second.CorrelationID)
	}
}

func TestIssueRequiresAgreementNumber(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	_, err := svc.Issue(context.Background(), "", "corr-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListByAgreementNumber(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.Issue(context.Background(), "SFI123456789", "corr-1"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Issue(context.Background(), "SFI999999999", "corr-2"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	list, err := svc.ListByAgreementNumber(context.Background(), "SFI123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].InvoiceNumber != "FRPS0" {
		t.Fatalf("unexpected list %+v", list)
	}
}
