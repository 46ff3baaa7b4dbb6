package agreements

import (
	"encoding/json"

	"github.com/landgrants/agreement-backend/pkg/enums"
	"github.com/landgrants/agreement-backend/pkg/types"
)

// TriggerEnvelope is the outer shape of every inbound lifecycle trigger. The
// message id doubles as the idempotency key for offer creation.
type TriggerEnvelope struct {
	MessageID string                   `json:"messageId" validate:"required"`
	Type      enums.TriggerMessageType `json:"type" validate:"required"`
	Data      json.RawMessage          `json:"data" validate:"required"`
}

// CreateTrigger carries a new offer notification.
type CreateTrigger struct {
	CorrelationID      string                    `json:"correlationId"`
	ClientRef          string                    `json:"clientRef" validate:"required"`
	Code               string                    `json:"code"`
	AgreementNumber    string                    `json:"agreementNumber" validate:"required"`
	AgreementName      string                    `json:"agreementName" validate:"required"`
	Identifiers        types.Identifiers         `json:"identifiers"`
	ActionApplications []types.ActionApplication `json:"actionApplications" validate:"required"`
	Applicant          *types.Applicant          `json:"applicant"`
	CreatedBy          string                    `json:"createdBy"`
}

// WithdrawTrigger withdraws every offered version under a client reference.
type WithdrawTrigger struct {
	ClientRef string `json:"clientRef" validate:"required"`
}

// StatusUpdatedTrigger drives the accept and unaccept transitions.
type StatusUpdatedTrigger struct {
	AgreementNumber string `json:"agreementNumber" validate:"required"`
	Status          string `json:"status" validate:"required,oneof=accepted offered"`
}
