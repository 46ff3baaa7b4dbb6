package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/landgrants/agreement-backend/pkg/enums"
	"github.com/landgrants/agreement-backend/pkg/types"
)

// AgreementVersion is one lifecycle snapshot of an agreement. The agreement
// back-link is populated after bulk insert, so it stays nullable.
type AgreementVersion struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgreementID           *uuid.UUID              `gorm:"column:agreement_id;type:uuid;index:ix_agreement_versions_agreement_id"`
	NotificationMessageID string                  `gorm:"column:notification_message_id;not null;uniqueIndex:ux_agreement_versions_notification_message_id"`
	CorrelationID         string                  `gorm:"column:correlation_id"`
	ClientRef             string                  `gorm:"column:client_ref;index:ix_agreement_versions_client_ref"`
	Code                  string                  `gorm:"column:code"`
	SBI                   string                  `gorm:"column:sbi;index:ix_agreement_versions_sbi"`
	FRN                   string                  `gorm:"column:frn"`
	CRN                   string                  `gorm:"column:crn"`
	DefraID               string                  `gorm:"column:defra_id"`
	Status                enums.AgreementStatus   `gorm:"column:status;type:text;not null;default:'offered'"`
	SignatureDate         *time.Time              `gorm:"column:signature_date"`
	ActionApplications    []types.ActionApplication `gorm:"column:action_applications;type:jsonb;serializer:json"`
	Payment               *types.PaymentSchedule  `gorm:"column:payment;type:jsonb;serializer:json"`
	Applicant             *types.Applicant        `gorm:"column:applicant;type:jsonb;serializer:json"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// Identifiers collects the reference numbers attached to this snapshot.
func (v AgreementVersion) Identifiers() types.Identifiers {
	return types.Identifiers{
		SBI:     v.SBI,
		FRN:     v.FRN,
		CRN:     v.CRN,
		DefraID: v.DefraID,
	}
}
