package controllers

import (
	"net/http"

	"github.com/angelmondragon/petlife-licenser/api/middleware"
	"github.com/angelmondragon/petlife-licenser/api/responses"
	"github.com/angelmondragon/petlife-licenser/api/validators"
	"github.com/angelmondragon/petlife-licenser/internal/auth"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/types"
)

// AdminLogin exchanges admin credentials for a bearer token.
func AdminLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminLogout revokes the session behind the caller's token.
func AdminLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.MessageBody{Message: "logged out"})
	}
}
