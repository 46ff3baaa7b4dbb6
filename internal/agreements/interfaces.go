package agreements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landgrants/agreement-backend/pkg/db/models"
	"github.com/landgrants/agreement-backend/pkg/types"
)

// Repository is the persistence surface for agreements and their versions.
// Status transitions are single filtered updates: the expected prior status is
// part of the WHERE clause, so a stale caller matches zero rows instead of
// silently overwriting newer state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error)
	FindBySBI(ctx context.Context, sbi string) (*models.Agreement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Agreement, error)
	FindVersionByNotificationMessageID(ctx context.Context, messageID string) (*models.AgreementVersion, error)
	FindOfferedVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error)
	FindLatestVersionByAgreementNumber(ctx context.Context, agreementNumber string) (*models.AgreementVersion, error)
	CountVersions(ctx context.Context, agreementID uuid.UUID) (int64, error)

	CreateAgreementWithVersions(ctx context.Context, agreement *models.Agreement, versions []models.AgreementVersion) (*models.Agreement, error)

	AcceptOffered(ctx context.Context, agreementNumber string, signedAt time.Time, payment *types.PaymentSchedule) (int64, error)
	RevertAccepted(ctx context.Context, agreementNumber string) (int64, error)
	WithdrawOffered(ctx context.Context, clientRef string) (int64, error)
}
