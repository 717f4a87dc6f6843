package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/angelmondragon/petlife-licenser/api/responses"
	"github.com/angelmondragon/petlife-licenser/internal/ratelimit"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerRetryAfter    = "Retry-After"
)

// RateLimit throttles each caller address (see ClientIP) per request path under policy. When
// the counter store is unavailable the request is let through and the failure is logged.
func RateLimit(guard *ratelimit.Guard, policy ratelimit.Policy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			decision, err := guard.Allow(ctx, policy, ClientIP(r), r.URL.Path)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy": policy.Name,
						"error":  err.Error(),
					}), "ratelimit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if decision.Limit > 0 {
				w.Header().Set(headerRateLimit, strconv.FormatInt(decision.Limit, 10))
				w.Header().Set(headerRateRemaining, strconv.FormatInt(decision.Remaining, 10))
				w.Header().Set(headerRateReset, decision.ResetAt.UTC().Format(time.RFC3339))
			}

			if !decision.Allowed {
				retryAfter := decision.RetryAfterSeconds()
				w.Header().Set(headerRetryAfter, strconv.FormatInt(retryAfter, 10))
				err := pkgerrors.New(pkgerrors.CodeRateLimit, policy.Message).
					WithDetails(map[string]any{"retryAfter": retryAfter})
				responses.WriteError(ctx, nil, w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
