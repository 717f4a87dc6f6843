package controllers

import (
	"net/http"

	"github.com/angelmondragon/petlife-licenser/api/middleware"
	"github.com/angelmondragon/petlife-licenser/api/responses"
	"github.com/angelmondragon/petlife-licenser/api/validators"
	"github.com/angelmondragon/petlife-licenser/internal/licenses"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxNotesLength = 1000

type createKeyRequest struct {
	ExpiresInDays *int     `json:"expires_in_days" validate:"omitnil,gte=1,lte=36500"`
	MaxMachines   *int     `json:"max_machines" validate:"omitnil,gte=1,lte=1000"`
	MaxUsers      *int     `json:"max_users" validate:"omitnil,gte=1,lte=10000"`
	Features      []string `json:"features" validate:"omitempty,max=32,dive,min=1,max=64"`
	Notes         string   `json:"notes"`
}

// AdminCreateKey issues a new license on behalf of the authenticated admin.
func AdminCreateKey(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		var body createKeyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		createdBy := middleware.UsernameFromContext(r.Context())
		result, err := svc.Create(r.Context(), licenses.CreateInput{
			ExpiresInDays: body.ExpiresInDays,
			MaxMachines:   body.MaxMachines,
			MaxUsers:      body.MaxUsers,
			Features:      body.Features,
			Notes:         validators.SanitizeString(body.Notes, maxNotesLength),
			CreatedBy:     createdBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminListKeys pages through licenses, newest first.
func AdminListKeys(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), licenses.ListParams{
			Status: validators.QueryString(r, "status"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminGetKey returns a license with its activation history.
func AdminGetKey(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		result, err := svc.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminRevokeKey permanently revokes a license.
func AdminRevokeKey(svc licenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "license service unavailable"))
			return
		}

		result, err := svc.Revoke(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
