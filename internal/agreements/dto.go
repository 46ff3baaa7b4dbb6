package agreements

import (
	"time"

	"github.com/landgrants/agreement-backend/pkg/db/models"
	"github.com/landgrants/agreement-backend/pkg/types"
)

// CreateOfferInput is one inbound offer notification. NotificationMessageID
// is the idempotency key: replays return the already-created agreement.
type CreateOfferInput struct {
	NotificationMessageID string
	CorrelationID         string
	ClientRef             string
	Code                  string
	AgreementNumber       string
	AgreementName         string
	Identifiers           types.Identifiers
	ActionApplications    []types.ActionApplication
	Applicant             *types.Applicant
	CreatedBy             string
}

// CreateOfferResult reports whether this call created anything or replayed a
// previously processed notification.
type CreateOfferResult struct {
	Agreement *models.Agreement
	Created   bool
}

// AcceptOfferInput identifies the offer being signed.
type AcceptOfferInput struct {
	AgreementNumber string
}

// AcceptOfferResult carries the post-acceptance snapshot.
type AcceptOfferResult struct {
	Agreement *models.Agreement
	ClaimID   string
}

type agreementCreatedEvent struct {
	AgreementNumber string `json:"agreementNumber"`
	CorrelationID   string `json:"correlationId"`
	ClientRef       string `json:"clientRef"`
	Status          string `json:"status"`
	Code            string `json:"code"`
	Date            string `json:"date"`
}

type agreementAcceptedEvent struct {
	AgreementNumber string `json:"agreementNumber"`
	CorrelationID   string `json:"correlationId"`
	ClientRef       string `json:"clientRef"`
	Version         int64  `json:"version"`
	AgreementURL    string `json:"agreementUrl"`
	Status          string `json:"status"`
	Code            string `json:"code"`
	Date            string `json:"date"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	ClaimID         string `json:"claimId"`
}

type agreementWithdrawnEvent struct {
	ClientRef string `json:"clientRef"`
	Status    string `json:"status"`
	Date      string `json:"date"`
}

func eventDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
