package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationRecord is an append-only audit entry for one validation attempt.
type ValidationRecord struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	LicenseID     *uuid.UUID `gorm:"column:license_id;type:uuid;index"`
	MachineIDHash string     `gorm:"column:machine_id_hash;type:text;not null;default:''"`
	ValidatedAt   time.Time  `gorm:"column:validated_at;not null;index"`
	Success       bool       `gorm:"column:success;not null"`
	ErrorCode     *string    `gorm:"column:error_code;type:text"`
	IPAddress     string     `gorm:"column:ip_address;type:text;not null;default:''"`
}

func (ValidationRecord) TableName() string { return "license_validations" }

func (r *ValidationRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
