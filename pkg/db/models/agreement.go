package models

import (
	"time"

	"github.com/google/uuid"
)

// Agreement is the parent record grouping every lifecycle version issued for
// one (frn, sbi) grant relationship. Created at most once per pair.
type Agreement struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgreementNumber string             `gorm:"column:agreement_number;not null;uniqueIndex:ux_agreements_agreement_number"`
	AgreementName   string             `gorm:"column:agreement_name;not null"`
	FRN             string             `gorm:"column:frn;not null;index:ix_agreements_frn_sbi"`
	SBI             string             `gorm:"column:sbi;not null;index:ix_agreements_frn_sbi"`
	ClientRef       string             `gorm:"column:client_ref"`
	CreatedBy       string             `gorm:"column:created_by"`
	Versions        []AgreementVersion `gorm:"foreignKey:AgreementID"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
