package licenses

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/db"
	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/licensekey"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
	pkgpagination "github.com/angelmondragon/petlife-licenser/pkg/pagination"
	"github.com/angelmondragon/petlife-licenser/pkg/types"
	"gorm.io/gorm"
)

const (
	defaultMaxMachines = 1
	defaultMaxUsers    = 5
	keyAttempts        = 5
	day                = 24 * time.Hour
)

// Service exposes the public validation protocol and the admin license operations.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error)
	Status(ctx context.Context, key string) (*StatusResult, error)
	Deactivate(ctx context.Context, key, machineID string) (*DeactivateResult, error)

	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, key string) (*Detail, error)
	Revoke(ctx context.Context, key string) (*RevokeResult, error)
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Logger     *logger.Logger
	Metrics    *metrics.LicenseMetrics
}

type service struct {
	repo        Repository
	tx          txRunner
	logg        *logger.Logger
	metrics     *metrics.LicenseMetrics
	now         func() time.Time
	generateKey func() (string, error)
}

// NewService builds the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repository,
		tx:          params.Tx,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         time.Now,
		generateKey: licensekey.Generate,
	}, nil
}

func (s *service) Status(ctx context.Context, key string) (*StatusResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "required parameter: key")
	}

	license, err := s.findLicense(ctx, key)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountActivations(ctx, license.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "count activations")
	}

	now := s.now().UTC()
	return &StatusResult{
		Active:        license.IsActive(now),
		Status:        license.Status,
		ExpiresAt:     license.ExpiresAt,
		DaysRemaining: daysRemaining(license.ExpiresAt, now),
		MachinesUsed:  count,
		MachinesLimit: license.MaxMachines,
	}, nil
}

func (s *service) Deactivate(ctx context.Context, key, machineID string) (*DeactivateResult, error) {
	key = strings.TrimSpace(key)
	machineID = strings.TrimSpace(machineID)
	if key == "" || machineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "required parameters: key, machine_id")
	}
	if err := checkMachineID(machineID); err != nil {
		return nil, err
	}

	license, err := s.findLicense(ctx, key)
	if err != nil {
		return nil, err
	}

	var remaining int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deleted, err := repo.DeleteActivation(ctx, license.ID, machineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "delete activation")
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "machine not found in activations")
		}
		remaining, err = repo.CountActivations(ctx, license.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "count activations")
		}
		return nil
	})
	if err != nil {
		return nil, asDatabaseError(err, "deactivate machine")
	}

	ctx = s.logg.WithLicenseKey(ctx, key)
	ctx = s.logg.WithMachine(ctx, machineID)
	s.logg.Info(ctx, "license.deactivate.completed")

	return &DeactivateResult{
		Message:           "machine deactivated",
		MachinesRemaining: remaining,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	maxMachines := defaultMaxMachines
	if input.MaxMachines != nil {
		maxMachines = *input.MaxMachines
	}
	if maxMachines < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_machines must be at least 1")
	}
	maxUsers := defaultMaxUsers
	if input.MaxUsers != nil {
		maxUsers = *input.MaxUsers
	}
	if maxUsers < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_users must be at least 1")
	}

	now := s.now().UTC()
	var expiresAt *time.Time
	if input.ExpiresInDays != nil {
		if *input.ExpiresInDays < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_in_days must be at least 1")
		}
		exp := now.Add(time.Duration(*input.ExpiresInDays) * day)
		expiresAt = &exp
	}

	license := &models.License{
		Status:      enums.LicenseStatusActive,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		MaxMachines: maxMachines,
		MaxUsers:    maxUsers,
		Features:    types.Features(input.Features).Normalize(),
		Notes:       strings.TrimSpace(input.Notes),
		CreatedBy:   strings.TrimSpace(input.CreatedBy),
	}

	for attempt := 1; ; attempt++ {
		key, err := s.generateKey()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate license key")
		}
		license.Key = key

		err = s.repo.CreateLicense(ctx, license)
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "create license")
		}
		if attempt >= keyAttempts {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "could not allocate a unique license key")
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "license.create.key_collision")
	}

	ctx = s.logg.WithLicenseKey(ctx, license.Key)
	ctx = s.logg.WithField(ctx, "created_by", license.CreatedBy)
	s.logg.Info(ctx, "license.created")

	return &CreateResult{
		Message:     "license created",
		Key:         license.Key,
		CreatedAt:   license.CreatedAt,
		ExpiresAt:   license.ExpiresAt,
		MaxMachines: license.MaxMachines,
		MaxUsers:    license.MaxUsers,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter, err := enums.ParseLicenseStatusFilter(strings.TrimSpace(params.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be active, revoked or all")
	}

	page := pkgpagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	rows, total, err := s.repo.ListLicenses(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "list licenses")
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = ListItem{
			LicenseView:   toLicenseView(row.License),
			MachinesCount: row.MachinesCount,
			LastValidated: row.LastValidated,
		}
	}

	return &ListResult{
		Keys:  items,
		Total: total,
		Page:  page.Page,
		Pages: pkgpagination.Pages(total, page.Limit),
	}, nil
}

func (s *service) Get(ctx context.Context, key string) (*Detail, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "required parameter: key")
	}

	license, err := s.findLicense(ctx, key)
	if err != nil {
		return nil, err
	}

	activations, err := s.repo.ListActivations(ctx, license.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "list activations")
	}

	views := make([]ActivationView, len(activations))
	for i, a := range activations {
		views[i] = toActivationView(a)
	}
	return &Detail{
		LicenseView: toLicenseView(*license),
		Activations: views,
	}, nil
}

func (s *service) Revoke(ctx context.Context, key string) (*RevokeResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "required parameter: key")
	}

	rows, err := s.repo.RevokeByKey(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "revoke license")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
	}

	s.logg.Info(s.logg.WithLicenseKey(ctx, key), "license.revoked")
	return &RevokeResult{Message: "license revoked", Key: key}, nil
}

func (s *service) findLicense(ctx context.Context, key string) (*models.License, error) {
	license, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "lookup license")
	}
	return license, nil
}

// daysRemaining rounds up to whole days; it is nil for perpetual licenses and negative once expired.
func daysRemaining(expiresAt *time.Time, now time.Time) *int {
	if expiresAt == nil {
		return nil
	}
	days := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	return &days
}

func asDatabaseError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDatabase, err, message)
}
