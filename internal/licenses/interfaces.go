package licenses

import (
	"context"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the license ledger tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateLicense(ctx context.Context, license *models.License) error
	FindByKey(ctx context.Context, key string) (*models.License, error)
	LockLicense(ctx context.Context, id uuid.UUID) error
	ListLicenses(ctx context.Context, filter enums.LicenseStatusFilter, limit, offset int) ([]LicenseRow, int64, error)
	RevokeByKey(ctx context.Context, key string) (int64, error)

	FindActivation(ctx context.Context, licenseID uuid.UUID, machineIDHash string) (*models.Activation, error)
	ListActivations(ctx context.Context, licenseID uuid.UUID) ([]models.Activation, error)
	CountActivations(ctx context.Context, licenseID uuid.UUID) (int64, error)
	InsertActivation(ctx context.Context, activation *models.Activation) (bool, error)
	TouchActivation(ctx context.Context, id uuid.UUID, appVersion, ip string, at time.Time) error
	DeleteActivation(ctx context.Context, licenseID uuid.UUID, machineIDHash string) (int64, error)

	InsertValidation(ctx context.Context, record *models.ValidationRecord) error
	DeleteValidationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LicenseRow is a license joined with its activation usage for admin listings.
type LicenseRow struct {
	models.License
	MachinesCount int64
	LastValidated *time.Time
}
