package agreements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landgrants/agreement-backend/internal/paymenthub"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db/models"
	"github.com/landgrants/agreement-backend/pkg/enums"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/events"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/types"
)

type stubRepo struct {
	agreement *models.Agreement
	version   *models.AgreementVersion

	createCalls   int
	acceptRows    int64
	acceptErr     error
	revertCalls   int
	revertRows    int64
	withdrawRows  int64
	versionStatus enums.AgreementStatus
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error) {
	if s.agreement == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agreement, nil
}

func (s *stubRepo) FindBySBI(ctx context.Context, sbi string) (*models.Agreement, error) {
	if s.agreement == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agreement, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Agreement, error) {
	if s.agreement == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agreement, nil
}

func (s *stubRepo) FindVersionByNotificationMessageID(ctx context.Context, messageID string) (*models.AgreementVersion, error) {
	if s.version == nil || s.version.NotificationMessageID != messageID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.version, nil
}

func (s *stubRepo) FindOfferedVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error) {
	if s.version == nil || s.versionStatus != enums.AgreementStatusOffered {
		return nil, gorm.ErrRecordNotFound
	}
	return s.version, nil
}

func (s *stubRepo) FindLatestVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error) {
	if s.version == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.version, nil
}

func (s *stubRepo) CountVersions(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	if s.agreement == nil {
		return 0, nil
	}
	return int64(len(s.agreement.Versions)), nil
}

func (s *stubRepo) CreateAgreementWithVersions(ctx context.Context, agreement *models.Agreement, versions []models.AgreementVersion) (*models.Agreement, error) {
	s.createCalls++
	created := *agreement
	created.ID = uuid.New()
	created.Versions = versions
	s.agreement = &created
	if len(versions) > 0 {
		v := versions[0]
		s.version = &v
		s.versionStatus = v.Status
	}
	return s.agreement, nil
}

func (s *stubRepo) AcceptOffered(ctx context.Context, agreementNumber string, signedAt time.Time, payment *types.PaymentSchedule) (int64, error) {
	if s.acceptErr != nil {
		return 0, s.acceptErr
	}
	if s.acceptRows > 0 {
		s.versionStatus = enums.AgreementStatusAccepted
	}
	return s.acceptRows, nil
}

func (s *stubRepo) RevertAccepted(ctx context.Context, agreementNumber string) (int64, error) {
	s.revertCalls++
	if s.revertRows > 0 {
		s.versionStatus = enums.AgreementStatusOffered
	}
	return s.revertRows, nil
}

func (s *stubRepo) WithdrawOffered(ctx context.Context, clientRef string) (int64, error) {
	if s.withdrawRows > 0 {
		s.versionStatus = enums.AgreementStatusWithdrawn
	}
	return s.withdrawRows, nil
}

type stubPublisher struct {
	inputs []events.PublishInput
	err    error
}

func (p *stubPublisher) Publish(ctx context.Context, input events.PublishInput) error {
	p.inputs = append(p.inputs, input)
	return p.err
}

type stubHub struct {
	calls   int
	err     error
	claimID string
}

func (h *stubHub) Register(ctx context.Context, input paymenthub.RegisterInput) (*paymenthub.Registration, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return &paymenthub.Registration{ClaimID: h.claimID}, nil
}

type stubCalculator struct {
	schedule *types.PaymentSchedule
	err      error
}

func (c *stubCalculator) CalculatePaymentsBasedOnActions(ctx context.Context, actions []types.ActionApplication) (*types.PaymentSchedule, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.schedule, nil
}

type stubInvoices struct {
	calls int
	err   error
}

func (i *stubInvoices) Issue(ctx context.Context, agreementNumber, correlationID string) (*models.Invoice, error) {
	i.calls++
	if i.err != nil {
		return nil, i.err
	}
	return &models.Invoice{InvoiceNumber: "FRPS1"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:           "test",
			PublicBaseURL: "https://agreements.example",
		},
		PubSub: config.PubSubConfig{
			AgreementEventsTopic: "agreement-events",
		},
		Retention: config.RetentionConfig{
			BaseYears:         7,
			BaseThreshold:     10,
			ExtendedThreshold: 15,
			BasePrefix:        "base",
			ExtendedPrefix:    "extended",
			MaximumPrefix:     "maximum",
		},
	}
}

func testSchedule() *types.PaymentSchedule {
	return &types.PaymentSchedule{
		AgreementStartDate:  "2026-01-01",
		AgreementEndDate:    "2029-01-01",
		Frequency:           enums.PaymentFrequencyQuarterly,
		AgreementTotalPence: 300000,
		AnnualTotalPence:    100000,
	}
}

func newTestService(t *testing.T, repo *stubRepo, pub *stubPublisher, hub *stubHub, calc *stubCalculator, inv *stubInvoices) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Calculator: calc,
		Hub:        hub,
		Invoices:   inv,
		Publisher:  pub,
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Config:     testConfig(),
	})
	if err != nil {
		t.Fatalf("creating service: %v", err)
	}
	return svc
}

func offerInput() CreateOfferInput {
	return CreateOfferInput{
		NotificationMessageID: "msg-001",
		CorrelationID:         "corr-001",
		ClientRef:             "ref-001",
		Code:                  "SFI1",
		AgreementNumber:       "SFI123456789",
		AgreementName:         "Willow Farm",
		Identifiers:           types.Identifiers{SBI: "106284736", FRN: "1102838829"},
	}
}

func TestCreateOfferIsIdempotent(t *testing.T) {
	repo := &stubRepo{}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub, &stubHub{}, &stubCalculator{}, &stubInvoices{})

	first, err := svc.CreateOffer(context.Background(), offerInput())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !first.Created {
		t.Fatal("first call should create")
	}

	second, err := svc.CreateOffer(context.Background(), offerInput())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.Created {
		t.Fatal("second call must not create")
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected exactly 1 create, got %d", repo.createCalls)
	}
	if second.Agreement.AgreementNumber != first.Agreement.AgreementNumber {
		t.Fatal("replay should return the existing agreement")
	}
	if len(pub.inputs) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(pub.inputs))
	}
	if pub.inputs[0].Type != enums.EventAgreementCreated {
		t.Fatalf("unexpected event type %s", pub.inputs[0].Type)
	}
}

func TestCreateOfferValidatesInput(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{}, &stubHub{}, &stubCalculator{}, &stubInvoices{})

	input := offerInput()
	input.AgreementName = ""
	_, err := svc.CreateOffer(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func acceptFixture() (*stubRepo, *stubPublisher, *stubHub, *stubCalculator, *stubInvoices) {
	agreementID := uuid.New()
	version := models.AgreementVersion{
		ID:                    uuid.New(),
		AgreementID:           &agreementID,
		NotificationMessageID: "msg-001",
		CorrelationID:         "corr-001",
		ClientRef:             "ref-001",
		Code:                  "SFI1",
		SBI:                   "106284736",
		FRN:                   "1102838829",
		Status:                enums.AgreementStatusOffered,
	}
	repo := &stubRepo{
		agreement: &models.Agreement{
			ID:              agreementID,
			AgreementNumber: "SFI123456789",
			AgreementName:   "Willow Farm",
			SBI:             "106284736",
			FRN:             "1102838829",
			Versions:        []models.AgreementVersion{version},
		},
		version:       &version,
		versionStatus: enums.AgreementStatusOffered,
		acceptRows:    1,
		revertRows:    1,
		withdrawRows:  1,
	}
	return repo, &stubPublisher{}, &stubHub{claimID: "CLM-42"}, &stubCalculator{schedule: testSchedule()}, &stubInvoices{}
}

func TestAcceptOfferSuccess(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	svc := newTestService(t, repo, pub, hub, calc, inv)

	result, err := svc.AcceptOffer(context.Background(), AcceptOfferInput{AgreementNumber: "SFI123456789"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClaimID != "CLM-42" {
		t.Fatalf("expected claim id CLM-42, got %q", result.ClaimID)
	}
	if repo.versionStatus != enums.AgreementStatusAccepted {
		t.Fatalf("expected accepted status, got %s", repo.versionStatus)
	}
	if inv.calls != 1 {
		t.Fatalf("expected 1 invoice issue, got %d", inv.calls)
	}

	if len(pub.inputs) != 1 {
		t.Fatalf("expected 1 accepted event, got %d", len(pub.inputs))
	}
	event, ok := pub.inputs[0].Data.(agreementAcceptedEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", pub.inputs[0].Data)
	}
	if event.AgreementNumber != "SFI123456789" || event.ClaimID != "CLM-42" {
		t.Fatalf("unexpected event fields: %+v", event)
	}
	if event.StartDate != "2026-01-01" || event.EndDate != "2029-01-01" {
		t.Fatalf("expected schedule dates on the event, got %+v", event)
	}
	if event.AgreementURL != "https://agreements.example/agreements/SFI123456789" {
		t.Fatalf("unexpected agreement url %q", event.AgreementURL)
	}
}

func TestAcceptOfferHubFailureRevertsToOffered(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	hub.err = pkgerrors.New(pkgerrors.CodeDependency, "payment hub registration failed")
	svc := newTestService(t, repo, pub, hub, calc, inv)

	_, err := svc.AcceptOffer(context.Background(), AcceptOfferInput{AgreementNumber: "SFI123456789"})
	if err == nil {
		t.Fatal("expected the hub error to surface")
	}
	if !errors.Is(err, hub.err) {
		t.Fatalf("expected the original hub error, got %v", err)
	}
	if repo.revertCalls != 1 {
		t.Fatalf("expected 1 compensating revert, got %d", repo.revertCalls)
	}
	if repo.versionStatus != enums.AgreementStatusOffered {
		t.Fatalf("expected status back to offered, got %s", repo.versionStatus)
	}
	if len(pub.inputs) != 0 {
		t.Fatalf("no event should publish on failure, got %d", len(pub.inputs))
	}
	if inv.calls != 0 {
		t.Fatalf("no invoice should issue on failure, got %d", inv.calls)
	}
}

func TestAcceptOfferNotOffered(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	repo.versionStatus = enums.AgreementStatusAccepted
	svc := newTestService(t, repo, pub, hub, calc, inv)

	_, err := svc.AcceptOffer(context.Background(), AcceptOfferInput{AgreementNumber: "SFI123456789"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	if hub.calls != 0 {
		t.Fatalf("hub should not be called, got %d calls", hub.calls)
	}
}

func TestUnacceptOfferNotFound(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	repo.revertRows = 0
	svc := newTestService(t, repo, pub, hub, calc, inv)

	err := svc.UnacceptOffer(context.Background(), "SFI123456789")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestWithdrawOfferNoMatchIsNoOp(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	repo.withdrawRows = 0
	svc := newTestService(t, repo, pub, hub, calc, inv)

	withdrawn, err := svc.WithdrawOffer(context.Background(), "ref-001")
	if err != nil {
		t.Fatalf("no-op withdraw must not error: %v", err)
	}
	if withdrawn {
		t.Fatal("expected withdrawn=false")
	}
	if len(pub.inputs) != 0 {
		t.Fatalf("no event should publish on no-op, got %d", len(pub.inputs))
	}
}

func TestWithdrawOfferPublishesEvent(t *testing.T) {
	repo, pub, hub, calc, inv := acceptFixture()
	svc := newTestService(t, repo, pub, hub, calc, inv)

	withdrawn, err := svc.WithdrawOffer(context.Background(), "ref-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !withdrawn {
		t.Fatal("expected withdrawn=true")
	}
	if len(pub.inputs) != 1 || pub.inputs[0].Type != enums.EventAgreementWithdrawn {
		t.Fatalf("expected 1 withdrawn event, got %+v", pub.inputs)
	}
}
