package agreements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/landgrants/agreement-backend/pkg/db/models"
	"github.com/landgrants/agreement-backend/pkg/enums"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/types"
)

type repository struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRepository builds an agreements repository bound to the provided DB.
func NewRepository(db *gorm.DB, logg *logger.Logger) Repository {
	return &repository{db: db, logg: logg}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, logg: r.logg}
}

func (r *repository) FindByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error) {
	var agreement models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Versions", versionOrder).
		Where("agreement_number = ?", agreementNumber).
		First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *repository) FindBySBI(ctx context.Context, sbi string) (*models.Agreement, error) {
	var agreement models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Versions", versionOrder).
		Where("sbi = ?", sbi).
		Order("created_at DESC").
		First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Agreement, error) {
	var agreement models.Agreement
	err := r.db.WithContext(ctx).
		Preload("Versions", versionOrder).
		Where("id = ?", id).
		First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *repository) FindVersionByNotificationMessageID(ctx context.Context, messageID string) (*models.AgreementVersion, error) {
	var version models.AgreementVersion
	err := r.db.WithContext(ctx).
		Where("notification_message_id = ?", messageID).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *repository) FindOfferedVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error) {
	var version models.AgreementVersion
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.AgreementStatusOffered).
		Where("agreement_id IN (?)", r.agreementIDByNumber(ctx, agreementNumber)).
		Order("created_at DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *repository) FindLatestVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error) {
	var version models.AgreementVersion
	err := r.db.WithContext(ctx).
		Where("agreement_id IN (?)", r.agreementIDByNumber(ctx, agreementNumber)).
		Order("created_at DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *repository) CountVersions(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AgreementVersion{}).
		Where("agreement_id = ?", agreementID).
		Count(&count).Error
	return count, err
}

// CreateAgreementWithVersions inserts the supplied versions and links them to
// the (frn, sbi) parent, creating the parent when it does not exist yet. If
// back-linking fails after a brand-new parent was created, the parent and the
// just-inserted versions are removed best-effort before the original error is
// returned. A pre-existing parent is never deleted.
func (r *repository) CreateAgreementWithVersions(ctx context.Context, agreement *models.Agreement, versions []models.AgreementVersion) (*models.Agreement, error) {
	if agreement == nil || agreement.AgreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}
	if agreement.AgreementName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement name is required")
	}
	if len(versions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one version is required")
	}

	parent, created, err := r.findOrCreateParent(ctx, agreement)
	if err != nil {
		return nil, err
	}

	for i := range versions {
		if versions[i].ID == uuid.Nil {
			versions[i].ID = uuid.New()
		}
	}
	if err := r.db.WithContext(ctx).Create(&versions).Error; err != nil {
		if created {
			r.compensate(ctx, parent, nil, err)
		}
		return nil, err
	}

	insertedIDs := make([]uuid.UUID, 0, len(versions))
	for _, v := range versions {
		insertedIDs = append(insertedIDs, v.ID)
	}

	err = r.db.WithContext(ctx).
		Model(&models.AgreementVersion{}).
		Where("id IN ?", insertedIDs).
		Where("agreement_id IS NULL OR agreement_id <> ?", parent.ID).
		Update("agreement_id", parent.ID).Error
	if err != nil {
		if created {
			r.compensate(ctx, parent, insertedIDs, err)
		}
		return nil, err
	}

	return r.FindByID(ctx, parent.ID)
}

func (r *repository) findOrCreateParent(ctx context.Context, agreement *models.Agreement) (*models.Agreement, bool, error) {
	var parent models.Agreement
	err := r.db.WithContext(ctx).
		Where("frn = ? AND sbi = ?", agreement.FRN, agreement.SBI).
		First(&parent).Error
	if err == nil {
		return &parent, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	fresh := models.Agreement{
		ID:              uuid.New(),
		AgreementNumber: agreement.AgreementNumber,
		AgreementName:   agreement.AgreementName,
		FRN:             agreement.FRN,
		SBI:             agreement.SBI,
		ClientRef:       agreement.ClientRef,
		CreatedBy:       agreement.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return nil, false, err
	}
	return &fresh, true, nil
}

// compensate removes the newly created parent and any versions inserted in
// this call. Failures here are logged, never surfaced over the original error.
func (r *repository) compensate(ctx context.Context, parent *models.Agreement, versionIDs []uuid.UUID, cause error) {
	var cleanupErr error
	if len(versionIDs) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", versionIDs).Delete(&models.AgreementVersion{}).Error; err != nil {
			cleanupErr = multierr.Append(cleanupErr, fmt.Errorf("deleting inserted versions: %w", err))
		}
	}
	if err := r.db.WithContext(ctx).Where("id = ?", parent.ID).Delete(&models.Agreement{}).Error; err != nil {
		cleanupErr = multierr.Append(cleanupErr, fmt.Errorf("deleting created parent: %w", err))
	}
	if cleanupErr != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"agreement_id": parent.ID.String(),
			"cause":        cause.Error(),
		})
		r.logg.Error(logCtx, "agreement create compensation incomplete", cleanupErr)
	}
}

// AcceptOffered flips the current offered version of the agreement to
// accepted in a single filtered update. The returned row count is zero when
// no version is currently offered, which callers treat as not-found.
func (r *repository) AcceptOffered(ctx context.Context, agreementNumber string, signedAt time.Time, payment *types.PaymentSchedule) (int64, error) {
	updates := map[string]any{
		"status":         enums.AgreementStatusAccepted,
		"signature_date": signedAt,
		"updated_at":     time.Now().UTC(),
	}
	if payment != nil {
		encoded, err := json.Marshal(payment)
		if err != nil {
			return 0, fmt.Errorf("encoding payment schedule: %w", err)
		}
		updates["payment"] = encoded
	}

	res := r.db.WithContext(ctx).
		Model(&models.AgreementVersion{}).
		Where("status = ?", enums.AgreementStatusOffered).
		Where("agreement_id IN (?)", r.agreementIDByNumber(ctx, agreementNumber)).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// RevertAccepted is the compensating transition: accepted back to offered
// with the signature cleared.
func (r *repository) RevertAccepted(ctx context.Context, agreementNumber string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AgreementVersion{}).
		Where("status = ?", enums.AgreementStatusAccepted).
		Where("agreement_id IN (?)", r.agreementIDByNumber(ctx, agreementNumber)).
		Updates(map[string]any{
			"status":         enums.AgreementStatusOffered,
			"signature_date": nil,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// WithdrawOffered only matches versions currently offered; zero rows is a
// valid no-op outcome, not an error.
func (r *repository) WithdrawOffered(ctx context.Context, clientRef string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AgreementVersion{}).
		Where("status = ?", enums.AgreementStatusOffered).
		Where("client_ref = ?", clientRef).
		Updates(map[string]any{
			"status":     enums.AgreementStatusWithdrawn,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) agreementIDByNumber(ctx context.Context, agreementNumber string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Agreement{}).
		Select("id").
		Where("agreement_number = ?", agreementNumber)
}

func versionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("agreement_versions.created_at ASC")
}
