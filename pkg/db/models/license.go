package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/angelmondragon/petlife-licenser/pkg/types"
)

// License is a purchased entitlement identified by its human-typable key.
type License struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Key         string              `gorm:"column:key;type:text;not null;uniqueIndex"`
	Status      enums.LicenseStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt   *time.Time          `gorm:"column:expires_at"`
	MaxMachines int                 `gorm:"column:max_machines;not null;default:1"`
	MaxUsers    int                 `gorm:"column:max_users;not null;default:5"`
	Features    types.Features      `gorm:"column:features;type:text;not null"`
	Notes       string              `gorm:"column:notes;type:text;not null;default:''"`
	CreatedBy   string              `gorm:"column:created_by;type:text;not null;default:''"`
}

func (License) TableName() string { return "licenses" }

func (l *License) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = enums.LicenseStatusActive
	}
	l.Features = l.Features.Normalize()
	return nil
}

// IsExpired reports whether the license has an expiry that lies before now.
func (l *License) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// IsActive reports whether the license is both not revoked and not expired.
func (l *License) IsActive(now time.Time) bool {
	return l.Status == enums.LicenseStatusActive && !l.IsExpired(now)
}
