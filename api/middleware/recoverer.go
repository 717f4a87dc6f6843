package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/petlife-licenser/api/responses"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

const licensePathPrefix = "/api/license/"

// Recoverer turns a handler panic into a 500. Desktop clients on /api/license/ get the
// valid:false shape they already parse for rejections.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": rec, "path": r.URL.Path})
					logg.Error(ctx, "panic.recovered", err)
				}
				appErr := pkgerrors.Wrap(pkgerrors.CodeInternal, err, "internal server error")
				if strings.HasPrefix(r.URL.Path, licensePathPrefix) {
					responses.WriteValidationError(ctx, logg, w, appErr)
					return
				}
				responses.WriteError(ctx, logg, w, appErr)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
