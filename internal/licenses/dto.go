package licenses

import (
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/angelmondragon/petlife-licenser/pkg/types"
	"github.com/google/uuid"
)

// ValidateInput is one activation/validation request from a desktop client.
type ValidateInput struct {
	Key        string
	AppID      string
	MachineID  string
	AppVersion string
	IP         string
}

// ValidateResult is returned for a granted validation.
type ValidateResult struct {
	Valid           bool                    `json:"valid"`
	ExpiresAt       *time.Time              `json:"expires_at"`
	Features        types.Features          `json:"features"`
	MaxUsers        int                     `json:"max_users"`
	MaxMachines     int                     `json:"max_machines"`
	CurrentMachines int64                   `json:"current_machines"`
	Outcome         enums.ValidationOutcome `json:"-"`
}

// StatusResult reports a license's standing without touching activations.
type StatusResult struct {
	Active        bool                `json:"active"`
	Status        enums.LicenseStatus `json:"status"`
	ExpiresAt     *time.Time          `json:"expires_at"`
	DaysRemaining *int                `json:"days_remaining"`
	MachinesUsed  int64               `json:"machines_used"`
	MachinesLimit int                 `json:"machines_limit"`
}

// DeactivateResult reports how many activations remain after a deactivation.
type DeactivateResult struct {
	Message           string `json:"message"`
	MachinesRemaining int64  `json:"machines_remaining"`
}

// CreateInput describes a new license. Nil pointers take the defaults.
type CreateInput struct {
	ExpiresInDays *int
	MaxMachines   *int
	MaxUsers      *int
	Features      []string
	Notes         string
	CreatedBy     string
}

// CreateResult is returned after issuing a license.
type CreateResult struct {
	Message     string     `json:"message"`
	Key         string     `json:"key"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxMachines int        `json:"max_machines"`
	MaxUsers    int        `json:"max_users"`
}

// ListParams filters and pages the admin listing.
type ListParams struct {
	Status string
	Page   int
	Limit  int
}

// LicenseView is the admin representation of a license.
type LicenseView struct {
	ID          uuid.UUID           `json:"id"`
	Key         string              `json:"key"`
	Status      enums.LicenseStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ExpiresAt   *time.Time          `json:"expires_at"`
	MaxMachines int                 `json:"max_machines"`
	MaxUsers    int                 `json:"max_users"`
	Features    types.Features      `json:"features"`
	Notes       string              `json:"notes"`
	CreatedBy   string              `json:"created_by"`
}

// ListItem is a license with its usage summary.
type ListItem struct {
	LicenseView
	MachinesCount int64      `json:"machines_count"`
	LastValidated *time.Time `json:"last_validated"`
}

// ListResult is one page of licenses.
type ListResult struct {
	Keys  []ListItem `json:"keys"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

// ActivationView is one machine bound to a license.
type ActivationView struct {
	ID            uuid.UUID `json:"id"`
	MachineIDHash string    `json:"machine_id_hash"`
	AppVersion    string    `json:"app_version"`
	ActivatedAt   time.Time `json:"activated_at"`
	LastValidated time.Time `json:"last_validated"`
	IPAddress     string    `json:"ip_address"`
}

// Detail is a license with its activation history, newest first.
type Detail struct {
	LicenseView
	Activations []ActivationView `json:"activations"`
}

// RevokeResult acknowledges a revocation.
type RevokeResult struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

func toLicenseView(m models.License) LicenseView {
	return LicenseView{
		ID:          m.ID,
		Key:         m.Key,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
		MaxMachines: m.MaxMachines,
		MaxUsers:    m.MaxUsers,
		Features:    m.Features,
		Notes:       m.Notes,
		CreatedBy:   m.CreatedBy,
	}
}

func toActivationView(m models.Activation) ActivationView {
	return ActivationView{
		ID:            m.ID,
		MachineIDHash: m.MachineIDHash,
		AppVersion:    m.AppVersion,
		ActivatedAt:   m.ActivatedAt,
		LastValidated: m.LastValidated,
		IPAddress:     m.IPAddress,
	}
}
