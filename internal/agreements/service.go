package agreements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/landgrants/agreement-backend/internal/paymenthub"
	"github.com/landgrants/agreement-backend/internal/payments"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db/models"
	"github.com/landgrants/agreement-backend/pkg/enums"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/events"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/storage/gcs"
	"github.com/landgrants/agreement-backend/pkg/types"
)

type lifecyclePublisher interface {
	Publish(ctx context.Context, input events.PublishInput) error
}

type scheduleCalculator interface {
	CalculatePaymentsBasedOnActions(ctx context.Context, actions []types.ActionApplication) (*types.PaymentSchedule, error)
}

type paymentHub interface {
	Register(ctx context.Context, input paymenthub.RegisterInput) (*paymenthub.Registration, error)
}

// InvoiceIssuer records an invoice for a freshly accepted agreement.
type InvoiceIssuer interface {
	Issue(ctx context.Context, agreementNumber, correlationID string) (*models.Invoice, error)
}

type documentStore interface {
	FetchObject(ctx context.Context, key string) ([]byte, error)
}

// Service drives the agreement lifecycle: offer creation, acceptance with
// payment-hub registration, the compensating unaccept, and withdrawal.
type Service interface {
	CreateOffer(ctx context.Context, input CreateOfferInput) (*CreateOfferResult, error)
	AcceptOffer(ctx context.Context, input AcceptOfferInput) (*AcceptOfferResult, error)
	UnacceptOffer(ctx context.Context, agreementNumber string) error
	WithdrawOffer(ctx context.Context, clientRef string) (bool, error)

	GetByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error)
	GetBySBI(ctx context.Context, sbi string) (*models.Agreement, error)
	GetDocument(ctx context.Context, agreementNumber string) ([]byte, error)
}

type service struct {
	repo       Repository
	calculator scheduleCalculator
	hub        paymentHub
	invoices   InvoiceIssuer
	publisher  lifecyclePublisher
	storage    documentStore
	logg       *logger.Logger

	eventsTopic   string
	publicBaseURL string
	retention     config.RetentionConfig
	now           func() time.Time
}

// ServiceParams collects the lifecycle engine's dependencies.
type ServiceParams struct {
	Repo       Repository
	Calculator scheduleCalculator
	Hub        paymentHub
	Invoices   InvoiceIssuer
	Publisher  lifecyclePublisher
	Storage    documentStore
	Logger     *logger.Logger
	Config     *config.Config
}

// NewService wires the lifecycle engine from explicit dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Config == nil {
		return nil, errors.New("config is required")
	}

	return &service{
		repo:          params.Repo,
		calculator:    params.Calculator,
		hub:           params.Hub,
		invoices:      params.Invoices,
		publisher:     params.Publisher,
		storage:       params.Storage,
		logg:          params.Logger,
		eventsTopic:   params.Config.PubSub.AgreementEventsTopic,
		publicBaseURL: strings.TrimRight(params.Config.App.PublicBaseURL, "/"),
		retention:     params.Config.Retention,
		now:           time.Now,
	}, nil
}

// CreateOffer ingests one offer notification. Replays keyed on the
// notification message id return the existing agreement without writing
// anything. The "agreement created" event publishes after persistence and a
// failure there surfaces to the caller without undoing the write.
func (s *service) CreateOffer(ctx context.Context, input CreateOfferInput) (*CreateOfferResult, error) {
	if input.NotificationMessageID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification message id is required")
	}
	if input.AgreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}
	if input.AgreementName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement name is required")
	}

	logCtx := s.logg.WithAgreementNumber(ctx, input.AgreementNumber)
	logCtx = s.logg.WithCorrelationID(logCtx, input.CorrelationID)

	existing, err := s.repo.FindVersionByNotificationMessageID(logCtx, input.NotificationMessageID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking notification replay: %w", err)
	}
	if existing != nil {
		s.logg.Info(s.logg.WithMessageID(logCtx, input.NotificationMessageID), "offer notification replayed")
		agreement, err := s.repo.FindByAgreementNumber(logCtx, input.AgreementNumber)
		if err != nil {
			return nil, fmt.Errorf("loading agreement for replayed notification: %w", err)
		}
		return &CreateOfferResult{Agreement: agreement, Created: false}, nil
	}

	version := models.AgreementVersion{
		NotificationMessageID: input.NotificationMessageID,
		CorrelationID:         input.CorrelationID,
		ClientRef:             input.ClientRef,
		Code:                  input.Code,
		SBI:                   input.Identifiers.SBI,
		FRN:                   input.Identifiers.FRN,
		CRN:                   input.Identifiers.CRN,
		DefraID:               input.Identifiers.DefraID,
		Status:                enums.AgreementStatusOffered,
		ActionApplications:    input.ActionApplications,
		Applicant:             input.Applicant,
	}

	agreement, err := s.repo.CreateAgreementWithVersions(logCtx, &models.Agreement{
		AgreementNumber: input.AgreementNumber,
		AgreementName:   input.AgreementName,
		FRN:             input.Identifiers.FRN,
		SBI:             input.Identifiers.SBI,
		ClientRef:       input.ClientRef,
		CreatedBy:       input.CreatedBy,
	}, []models.AgreementVersion{version})
	if err != nil {
		return nil, err
	}

	err = s.publisher.Publish(logCtx, events.PublishInput{
		Topic: s.eventsTopic,
		Type:  enums.EventAgreementCreated,
		Time:  s.now(),
		Data: agreementCreatedEvent{
			AgreementNumber: agreement.AgreementNumber,
			CorrelationID:   input.CorrelationID,
			ClientRef:       input.ClientRef,
			Status:          string(enums.AgreementStatusOffered),
			Code:            input.Code,
			Date:            eventDate(s.now()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publishing agreement created event: %w", err)
	}

	return &CreateOfferResult{Agreement: agreement, Created: true}, nil
}

// AcceptOffer flips the offered version to accepted, registers the payment
// schedule with the payment hub, and publishes the acceptance. The accept is
// all-or-nothing: a hub failure triggers the compensating unaccept and the
// hub's error is returned to the caller. Invoice issue is best-effort.
func (s *service) AcceptOffer(ctx context.Context, input AcceptOfferInput) (*AcceptOfferResult, error) {
	if input.AgreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}

	logCtx := s.logg.WithAgreementNumber(ctx, input.AgreementNumber)

	offered, err := s.repo.FindOfferedVersionByAgreementNumber(logCtx, input.AgreementNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no offered agreement found")
		}
		return nil, fmt.Errorf("loading offered version: %w", err)
	}

	schedule := offered.Payment
	if schedule == nil {
		if s.calculator == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment calculator not configured")
		}
		schedule, err = s.calculator.CalculatePaymentsBasedOnActions(logCtx, offered.ActionApplications)
		if err != nil {
			return nil, err
		}
	}

	signedAt := s.now().UTC()
	var claimID string

	steps := []sagaStep{
		{
			name: "mark accepted",
			run: func(ctx context.Context) error {
				rows, err := s.repo.AcceptOffered(ctx, input.AgreementNumber, signedAt, schedule)
				if err != nil {
					return fmt.Errorf("accepting offer: %w", err)
				}
				if rows == 0 {
					return pkgerrors.New(pkgerrors.CodeNotFound, "no offered agreement found")
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				rows, err := s.repo.RevertAccepted(ctx, input.AgreementNumber)
				if err != nil {
					return err
				}
				if rows == 0 {
					return fmt.Errorf("no accepted version to revert for %s", input.AgreementNumber)
				}
				return nil
			},
		},
		{
			name: "register payment schedule",
			run: func(ctx context.Context) error {
				if s.hub == nil {
					return pkgerrors.New(pkgerrors.CodeDependency, "payment hub not configured")
				}
				registration, err := s.hub.Register(ctx, paymenthub.RegisterInput{
					AgreementNumber: input.AgreementNumber,
					CorrelationID:   offered.CorrelationID,
					SBI:             offered.SBI,
					FRN:             offered.FRN,
					Payment:         schedule,
				})
				if err != nil {
					return err
				}
				claimID = registration.ClaimID
				return nil
			},
		},
	}
	if err := runSaga(logCtx, s.logg, steps); err != nil {
		return nil, err
	}

	agreement, err := s.repo.FindByAgreementNumber(logCtx, input.AgreementNumber)
	if err != nil {
		return nil, fmt.Errorf("reading back accepted agreement: %w", err)
	}

	if s.invoices != nil {
		if _, err := s.invoices.Issue(logCtx, input.AgreementNumber, offered.CorrelationID); err != nil {
			s.logg.Error(logCtx, "invoice issue failed after acceptance", err)
		}
	}

	versionCount, err := s.repo.CountVersions(logCtx, agreement.ID)
	if err != nil {
		versionCount = int64(len(agreement.Versions))
	}

	err = s.publisher.Publish(logCtx, events.PublishInput{
		Topic: s.eventsTopic,
		Type:  enums.EventAgreementAccepted,
		Time:  signedAt,
		Data: agreementAcceptedEvent{
			AgreementNumber: agreement.AgreementNumber,
			CorrelationID:   offered.CorrelationID,
			ClientRef:       offered.ClientRef,
			Version:         versionCount,
			AgreementURL:    s.agreementURL(agreement.AgreementNumber),
			Status:          string(enums.AgreementStatusAccepted),
			Code:            offered.Code,
			Date:            eventDate(signedAt),
			StartDate:       schedule.AgreementStartDate,
			EndDate:         schedule.AgreementEndDate,
			ClaimID:         claimID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publishing agreement accepted event: %w", err)
	}

	return &AcceptOfferResult{Agreement: agreement, ClaimID: claimID}, nil
}

// UnacceptOffer reverts an accepted agreement back to offered and clears the
// signature. Zero matched rows means nothing is accepted, surfaced not-found.
func (s *service) UnacceptOffer(ctx context.Context, agreementNumber string) error {
	if agreementNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}

	rows, err := s.repo.RevertAccepted(ctx, agreementNumber)
	if err != nil {
		return fmt.Errorf("reverting acceptance: %w", err)
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no accepted agreement found")
	}
	return nil
}

// WithdrawOffer withdraws every offered version under the client reference.
// Nothing matching is a no-op, reported as (false, nil) so the boundary can
// distinguish it from a hard failure.
func (s *service) WithdrawOffer(ctx context.Context, clientRef string) (bool, error) {
	if clientRef == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "client ref is required")
	}

	rows, err := s.repo.WithdrawOffered(ctx, clientRef)
	if err != nil {
		return false, fmt.Errorf("withdrawing offer: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	withdrawnAt := s.now()
	err = s.publisher.Publish(ctx, events.PublishInput{
		Topic: s.eventsTopic,
		Type:  enums.EventAgreementWithdrawn,
		Time:  withdrawnAt,
		Data: agreementWithdrawnEvent{
			ClientRef: clientRef,
			Status:    string(enums.AgreementStatusWithdrawn),
			Date:      eventDate(withdrawnAt),
		},
	})
	if err != nil {
		return true, fmt.Errorf("publishing agreement withdrawn event: %w", err)
	}
	return true, nil
}

func (s *service) GetByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error) {
	agreement, err := s.repo.FindByAgreementNumber(ctx, agreementNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
		}
		return nil, err
	}
	return agreement, nil
}

func (s *service) GetBySBI(ctx context.Context, sbi string) (*models.Agreement, error) {
	agreement, err := s.repo.FindBySBI(ctx, sbi)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
		}
		return nil, err
	}
	return agreement, nil
}

// GetDocument fetches the rendered PDF for the latest version. The storage
// path prefix follows the retention bucket derived from the schedule dates.
func (s *service) GetDocument(ctx context.Context, agreementNumber string) ([]byte, error) {
	if s.storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document storage not configured")
	}

	agreement, err := s.GetByAgreementNumber(ctx, agreementNumber)
	if err != nil {
		return nil, err
	}
	if len(agreement.Versions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement has no versions")
	}

	latest := agreement.Versions[len(agreement.Versions)-1]
	prefix := s.retention.BasePrefix
	if latest.Payment != nil {
		start, startErr := time.Parse(time.DateOnly, latest.Payment.AgreementStartDate)
		end, endErr := time.Parse(time.DateOnly, latest.Payment.AgreementEndDate)
		if startErr == nil && endErr == nil {
			prefix = payments.RetentionPrefix(s.retention, start, end)
		}
	}

	key := gcs.DocumentKey(prefix, agreement.ID.String(), len(agreement.Versions))
	doc, err := s.storage.FetchObject(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching agreement document")
	}
	return doc, nil
}

func (s *service) agreementURL(agreementNumber string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/agreements/%s", s.publicBaseURL, agreementNumber)
}
