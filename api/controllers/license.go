package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/petlife-licenser/api/middleware"
	"github.com/angelmondragon/petlife-licenser/api/responses"
	"github.com/angelmondragon/petlife-licenser/api/validators"
	"github.com/angelmondragon/petlife-licenser/internal/licenses"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/types"
)

type validateRequest struct {
	Key        string `json:"key"`
	AppID      string `json:"app_id"`
	MachineID  string `json:"machine_id"`
	AppVersion string `json:"app_version"`
}

type deactivateRequest struct {
	Key       string `json:"key"`
	MachineID string `json:"machine_id"`
}

// LicenseValidate activates or renews a machine for a license key.
func LicenseValidate(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteValidationError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		var body validateRequest
		if err := validators.DecodeLenientJSONBody(r, &body); err != nil {
			responses.WriteValidationError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), licenses.ValidateInput{
			Key:        body.Key,
			AppID:      body.AppID,
			MachineID:  body.MachineID,
			AppVersion: body.AppVersion,
			IP:         middleware.ClientIP(r),
		})
		if err != nil {
			responses.WriteValidationError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// LicenseStatus reports whether a key is usable and how many machines it has.
func LicenseStatus(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		result, err := svc.Status(r.Context(), validators.QueryString(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// LicenseDeactivate releases one machine from a license.
func LicenseDeactivate(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		var body deactivateRequest
		if err := validators.DecodeLenientJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Deactivate(r.Context(), body.Key, body.MachineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type testValidateResponse struct {
	licenses.ValidateResult
	TestMode bool `json:"test_mode"`
}

// LicenseTestValidate returns a canned successful validation without touching the ledger.
// It is only mounted in dev with test endpoints enabled.
func LicenseTestValidate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body validateRequest
		if err := validators.DecodeLenientJSONBody(r, &body); err != nil {
			responses.WriteValidationError(r.Context(), logg, w, err)
			return
		}

		expires := time.Now().UTC().Add(365 * 24 * time.Hour)
		responses.WriteSuccess(w, testValidateResponse{
			ValidateResult: licenses.ValidateResult{
				Valid:           true,
				ExpiresAt:       &expires,
				Features:        types.DefaultFeatures(),
				MaxUsers:        5,
				MaxMachines:     1,
				CurrentMachines: 1,
			},
			TestMode: true,
		})
	}
}
