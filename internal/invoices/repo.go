package invoices

import (
	"context"

	"gorm.io/gorm"

	"github.com/landgrants/agreement-backend/pkg/db/models"
)

// Repository persists invoices.
type Repository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Count(&count).Error
	return count, err
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("agreement_number = ?", agreementNumber).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}
