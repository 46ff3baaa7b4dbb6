package agreements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/go-playground/validator/v10"

	lifecycle "github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/pkg/enums"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/metrics"
)

const consumerName = "agreement-triggers"

type lifecycleService interface {
	CreateOffer(ctx context.Context, input lifecycle.CreateOfferInput) (*lifecycle.CreateOfferResult, error)
	AcceptOffer(ctx context.Context, input lifecycle.AcceptOfferInput) (*lifecycle.AcceptOfferResult, error)
	UnacceptOffer(ctx context.Context, agreementNumber string) error
	WithdrawOffer(ctx context.Context, clientRef string) (bool, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, messageID string) (bool, error)
	Delete(ctx context.Context, consumer, messageID string) error
}

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Consumer drives the agreement lifecycle from inbound trigger messages. A
// Redis guard keyed on the message id drops replays before they reach the
// engine; the store-level unique index remains the correctness backstop.
type Consumer struct {
	service  lifecycleService
	manager  idempotencyChecker
	validate *validator.Validate
	metrics  *metrics.ConsumerMetrics
	logg     *logger.Logger
}

// NewConsumer wires the trigger consumer.
func NewConsumer(service lifecycleService, manager idempotencyChecker, consumerMetrics *metrics.ConsumerMetrics, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, errors.New("lifecycle service is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		service:  service,
		manager:  manager,
		validate: validator.New(),
		metrics:  consumerMetrics,
		logg:     logg,
	}, nil
}

// Run blocks pulling messages from the subscription until the context ends.
// Handling errors nack the message for redelivery; validation failures ack,
// since a malformed message never becomes valid on retry.
func (c *Consumer) Run(ctx context.Context, sub subscriber) error {
	return sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		err := c.Process(ctx, msg.Data)
		if err == nil || isTerminal(err) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Process handles one raw trigger message.
func (c *Consumer) Process(ctx context.Context, raw []byte) error {
	var envelope TriggerEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.metrics.IncFailed("unknown")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding trigger envelope")
	}
	if err := c.validate.Struct(envelope); err != nil {
		c.metrics.IncFailed(string(envelope.Type))
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validating trigger envelope")
	}

	logCtx := c.logg.WithMessageID(ctx, envelope.MessageID)
	logCtx = c.logg.WithField(logCtx, "message_type", envelope.Type)

	already, err := c.manager.CheckAndMarkProcessed(logCtx, consumerName, envelope.MessageID)
	if err != nil {
		c.metrics.IncFailed(string(envelope.Type))
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "trigger message already processed")
		c.metrics.IncSkipped(string(envelope.Type))
		return nil
	}

	if err := c.dispatch(logCtx, envelope); err != nil {
		// release the marker so a redelivery can retry transient failures
		if !isTerminal(err) {
			_ = c.manager.Delete(logCtx, consumerName, envelope.MessageID)
		}
		c.logg.Error(logCtx, "trigger message failed", err)
		c.metrics.IncFailed(string(envelope.Type))
		return err
	}

	c.metrics.IncProcessed(string(envelope.Type))
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, envelope TriggerEnvelope) error {
	switch envelope.Type {
	case enums.TriggerAgreementCreate:
		return c.handleCreate(ctx, envelope)
	case enums.TriggerAgreementWithdraw:
		return c.handleWithdraw(ctx, envelope)
	case enums.TriggerAgreementStatusUpdated:
		return c.handleStatusUpdated(ctx, envelope)
	default:
		c.logg.Warn(ctx, "unsupported trigger message type")
		c.metrics.IncSkipped(string(envelope.Type))
		return nil
	}
}

func (c *Consumer) handleCreate(ctx context.Context, envelope TriggerEnvelope) error {
	var trigger CreateTrigger
	if err := json.Unmarshal(envelope.Data, &trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding create trigger")
	}
	if err := c.validate.Struct(trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validating create trigger")
	}

	result, err := c.service.CreateOffer(ctx, lifecycle.CreateOfferInput{
		NotificationMessageID: envelope.MessageID,
		CorrelationID:         trigger.CorrelationID,
		ClientRef:             trigger.ClientRef,
		Code:                  trigger.Code,
		AgreementNumber:       trigger.AgreementNumber,
		AgreementName:         trigger.AgreementName,
		Identifiers:           trigger.Identifiers,
		ActionApplications:    trigger.ActionApplications,
		Applicant:             trigger.Applicant,
		CreatedBy:             trigger.CreatedBy,
	})
	if err != nil {
		return err
	}
	if !result.Created {
		c.logg.Info(ctx, "offer already exists for notification")
	}
	return nil
}

func (c *Consumer) handleWithdraw(ctx context.Context, envelope TriggerEnvelope) error {
	var trigger WithdrawTrigger
	if err := json.Unmarshal(envelope.Data, &trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding withdraw trigger")
	}
	if err := c.validate.Struct(trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validating withdraw trigger")
	}

	withdrawn, err := c.service.WithdrawOffer(ctx, trigger.ClientRef)
	if err != nil {
		return err
	}
	if !withdrawn {
		c.logg.Info(ctx, "nothing to withdraw for client ref")
	}
	return nil
}

func (c *Consumer) handleStatusUpdated(ctx context.Context, envelope TriggerEnvelope) error {
	var trigger StatusUpdatedTrigger
	if err := json.Unmarshal(envelope.Data, &trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding status trigger")
	}
	if err := c.validate.Struct(trigger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validating status trigger")
	}

	switch enums.AgreementStatus(trigger.Status) {
	case enums.AgreementStatusAccepted:
		_, err := c.service.AcceptOffer(ctx, lifecycle.AcceptOfferInput{AgreementNumber: trigger.AgreementNumber})
		return err
	case enums.AgreementStatusOffered:
		return c.service.UnacceptOffer(ctx, trigger.AgreementNumber)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported status transition")
	}
}

// isTerminal reports whether retrying the message can never succeed.
func isTerminal(err error) bool {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		return false
	}
	switch appErr.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeConflict, pkgerrors.CodeStateConflict, pkgerrors.CodeIdempotency:
		return true
	default:
		return false
	}
}
