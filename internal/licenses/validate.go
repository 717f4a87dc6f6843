package licenses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/db/models"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/licensekey"
	"github.com/angelmondragon/petlife-licenser/pkg/machineid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Validate runs the activation protocol. Each rejection is written to the audit trail before it
// is returned; a granted validation commits its activation write and audit record together.
func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error) {
	input.Key = strings.TrimSpace(input.Key)
	input.AppID = strings.TrimSpace(input.AppID)
	input.MachineID = strings.TrimSpace(input.MachineID)
	input.AppVersion = strings.TrimSpace(input.AppVersion)
	if input.Key == "" || input.AppID == "" || input.MachineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingParameters, "required parameters: key, app_id, machine_id")
	}
	if err := checkMachineID(input.MachineID); err != nil {
		return nil, err
	}

	ctx = s.logg.WithLicenseKey(ctx, input.Key)
	ctx = s.logg.WithMachine(ctx, input.MachineID)
	now := s.now().UTC()

	if !licensekey.ValidFormat(input.Key) {
		return nil, s.reject(ctx, input, nil, now, pkgerrors.New(pkgerrors.CodeInvalidFormat, "invalid key format, expected XXXX-XXXX-XXXX-XXXX"))
	}

	license, err := s.repo.FindByKey(ctx, input.Key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.reject(ctx, input, nil, now, pkgerrors.New(pkgerrors.CodeInvalidKey, "license key not found"))
		}
		return nil, s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "lookup license"))
	}

	if license.Status == enums.LicenseStatusRevoked {
		return nil, s.reject(ctx, input, &license.ID, now, pkgerrors.New(pkgerrors.CodeRevokedKey, "this license has been revoked"))
	}
	if license.IsExpired(now) {
		return nil, s.reject(ctx, input, &license.ID, now, pkgerrors.New(pkgerrors.CodeExpiredKey, "this license has expired"))
	}

	var (
		result   *ValidateResult
		rejected error
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockLicense(ctx, license.ID); err != nil {
			return err
		}

		count, err := repo.CountActivations(ctx, license.ID)
		if err != nil {
			return err
		}
		existing, err := repo.FindActivation(ctx, license.ID, input.MachineID)
		if err != nil {
			return err
		}

		outcome := enums.ValidationOutcomeRenewed
		if existing == nil {
			if count >= int64(license.MaxMachines) {
				rejected = pkgerrors.New(pkgerrors.CodeMachineLimit, "this license is already activated on the maximum number of machines").
					WithDetails(map[string]any{
						"max_machines":     license.MaxMachines,
						"current_machines": count,
					})
				return repo.InsertValidation(ctx, s.auditRecord(input, &license.ID, now, rejected))
			}

			inserted, err := repo.InsertActivation(ctx, &models.Activation{
				LicenseID:     license.ID,
				MachineIDHash: input.MachineID,
				AppVersion:    input.AppVersion,
				ActivatedAt:   now,
				LastValidated: now,
				IPAddress:     input.IP,
			})
			if err != nil {
				return err
			}
			if inserted {
				outcome = enums.ValidationOutcomeActivated
				count++
			} else {
				// a concurrent request for the same machine won the insert
				existing, err = repo.FindActivation(ctx, license.ID, input.MachineID)
				if err != nil {
					return err
				}
				if existing == nil {
					return gorm.ErrRecordNotFound
				}
			}
		}

		if existing != nil {
			if err := repo.TouchActivation(ctx, existing.ID, input.AppVersion, input.IP, now); err != nil {
				return err
			}
		}
		if err := repo.InsertValidation(ctx, s.auditRecord(input, &license.ID, now, nil)); err != nil {
			return err
		}

		result = &ValidateResult{
			Valid:           true,
			ExpiresAt:       license.ExpiresAt,
			Features:        license.Features,
			MaxUsers:        license.MaxUsers,
			MaxMachines:     license.MaxMachines,
			CurrentMachines: count,
			Outcome:         outcome,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "record validation"))
	}

	if rejected != nil {
		s.metrics.IncValidation(string(enums.ValidationOutcomeMachineLimitExceeded))
		s.logg.Warn(s.logg.WithField(ctx, "error_code", pkgerrors.CodeMachineLimit), "license.validate.rejected")
		return nil, rejected
	}

	s.metrics.IncValidation(string(result.Outcome))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"outcome":          result.Outcome,
		"current_machines": result.CurrentMachines,
	})
	s.logg.Info(ctx, "license.validate.granted")
	return result, nil
}

// reject writes the audit record for a failed validation and returns the rejection. When the
// audit write fails the caller gets a database error instead.
func (s *service) reject(ctx context.Context, input ValidateInput, licenseID *uuid.UUID, now time.Time, rejection *pkgerrors.Error) error {
	if err := s.repo.InsertValidation(ctx, s.auditRecord(input, licenseID, now, rejection)); err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeDatabase, err, "record validation"))
	}
	s.metrics.IncValidation(string(rejection.Code()))
	s.logg.Warn(s.logg.WithField(ctx, "error_code", rejection.Code()), "license.validate.rejected")
	return rejection
}

func (s *service) fail(ctx context.Context, err *pkgerrors.Error) error {
	s.metrics.IncValidation(string(enums.ValidationOutcomeError))
	s.logg.Error(ctx, "license.validate.failed", err)
	return err
}

func (s *service) auditRecord(input ValidateInput, licenseID *uuid.UUID, now time.Time, rejection error) *models.ValidationRecord {
	record := &models.ValidationRecord{
		LicenseID:     licenseID,
		MachineIDHash: input.MachineID,
		ValidatedAt:   now,
		Success:       rejection == nil,
		IPAddress:     input.IP,
	}
	if rejection != nil {
		code := string(pkgerrors.CodeOf(rejection))
		record.ErrorCode = &code
	}
	return record
}

// checkMachineID rejects anything that is not a hashed machine id so arbitrary strings never
// reach the activation or audit tables.
func checkMachineID(machineID string) error {
	if machineid.ValidHash(machineID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "machine_id must be a 64-character lowercase hex digest").
		WithDetails(map[string]any{"field": "machine_id"})
}
