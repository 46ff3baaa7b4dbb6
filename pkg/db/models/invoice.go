package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is raised once per accepted agreement and never mutated afterwards.
type Invoice struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgreementNumber string    `gorm:"column:agreement_number;not null;index:ix_invoices_agreement_number"`
	InvoiceNumber   string    `gorm:"column:invoice_number;not null;uniqueIndex:ux_invoices_invoice_number"`
	CorrelationID   string    `gorm:"column:correlation_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
