package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activation binds a license to one machine fingerprint.
type Activation struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	LicenseID     uuid.UUID `gorm:"column:license_id;type:uuid;not null;uniqueIndex:license_activations_license_machine_key,priority:1"`
	MachineIDHash string    `gorm:"column:machine_id_hash;type:text;not null;uniqueIndex:license_activations_license_machine_key,priority:2"`
	AppVersion    string    `gorm:"column:app_version;type:text;not null;default:''"`
	ActivatedAt   time.Time `gorm:"column:activated_at;not null"`
	LastValidated time.Time `gorm:"column:last_validated;not null"`
	IPAddress     string    `gorm:"column:ip_address;type:text;not null;default:''"`
}

func (Activation) TableName() string { return "license_activations" }

func (a *Activation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
