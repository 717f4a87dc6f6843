package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateLicense(ctx context.Context, license *models.License) error {
	return r.db.WithContext(ctx).Create(license).Error
}

func (r *repository) FindByKey(ctx context.Context, key string) (*models.License, error) {
	var license models.License
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

// LockLicense takes a row lock on postgres so concurrent validations of one license serialize
// their activation count checks. sqlite serializes writers on its own.
func (r *repository) LockLicense(ctx context.Context, id uuid.UUID) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	var locked models.License
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		First(&locked).Error
}

func (r *repository) ListLicenses(ctx context.Context, filter enums.LicenseStatusFilter, limit, offset int) ([]LicenseRow, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.License{})
		if status, ok := filter.Status(); ok {
			query = query.Where("status = ?", status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var licenses []models.License
	if err := scoped().Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&licenses).Error; err != nil {
		return nil, 0, err
	}
	if len(licenses) == 0 {
		return []LicenseRow{}, total, nil
	}

	ids := make([]uuid.UUID, len(licenses))
	for i, l := range licenses {
		ids[i] = l.ID
	}

	var counts []struct {
		LicenseID uuid.UUID
		Total     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Activation{}).
		Select("license_id, COUNT(*) AS total").
		Where("license_id IN ?", ids).
		Group("license_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, err
	}
	countByID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		countByID[c.LicenseID] = c.Total
	}

	rows := make([]LicenseRow, len(licenses))
	for i, l := range licenses {
		last, err := r.lastSuccessfulValidation(ctx, l.ID)
		if err != nil {
			return nil, 0, err
		}
		rows[i] = LicenseRow{License: l, MachinesCount: countByID[l.ID], LastValidated: last}
	}
	return rows, total, nil
}

func (r *repository) lastSuccessfulValidation(ctx context.Context, licenseID uuid.UUID) (*time.Time, error) {
	var record models.ValidationRecord
	err := r.db.WithContext(ctx).
		Where("license_id = ? AND success = ?", licenseID, true).
		Order("validated_at DESC").
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.ValidatedAt, nil
}

func (r *repository) RevokeByKey(ctx context.Context, key string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.License{}).
		Where("key = ?", key).
		Update("status", enums.LicenseStatusRevoked)
	return res.RowsAffected, res.Error
}

func (r *repository) FindActivation(ctx context.Context, licenseID uuid.UUID, machineIDHash string) (*models.Activation, error) {
	var activation models.Activation
	err := r.db.WithContext(ctx).
		Where("license_id = ? AND machine_id_hash = ?", licenseID, machineIDHash).
		Take(&activation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

func (r *repository) ListActivations(ctx context.Context, licenseID uuid.UUID) ([]models.Activation, error) {
	var activations []models.Activation
	err := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("activated_at DESC").
		Find(&activations).Error
	return activations, err
}

func (r *repository) CountActivations(ctx context.Context, licenseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Activation{}).Where("license_id = ?", licenseID).Count(&count).Error
	return count, err
}

// InsertActivation inserts the activation unless one already exists for the same license and
// machine. It reports whether a row was written.
func (r *repository) InsertActivation(ctx context.Context, activation *models.Activation) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "license_id"}, {Name: "machine_id_hash"}},
			DoNothing: true,
		}).
		Create(activation)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) TouchActivation(ctx context.Context, id uuid.UUID, appVersion, ip string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_validated": at,
			"app_version":    appVersion,
			"ip_address":     ip,
		}).Error
}

func (r *repository) DeleteActivation(ctx context.Context, licenseID uuid.UUID, machineIDHash string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("license_id = ? AND machine_id_hash = ?", licenseID, machineIDHash).
		Delete(&models.Activation{})
	return res.RowsAffected, res.Error
}

func (r *repository) InsertValidation(ctx context.Context, record *models.ValidationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) DeleteValidationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("validated_at < ?", cutoff).
		Delete(&models.ValidationRecord{})
	return res.RowsAffected, res.Error
}
