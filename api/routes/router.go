package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/petlife-licenser/api/controllers"
	"github.com/angelmondragon/petlife-licenser/api/middleware"
	"github.com/angelmondragon/petlife-licenser/internal/auth"
	"github.com/angelmondragon/petlife-licenser/internal/licenses"
	"github.com/angelmondragon/petlife-licenser/internal/ratelimit"
	"github.com/angelmondragon/petlife-licenser/pkg/auth/session"
	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/enums"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	sessions session.AccessSessionChecker,
	guard *ratelimit.Guard,
	gatherer prometheus.Gatherer,
	authService auth.Service,
	licenseService licenses.Service,
) http.Handler {
	trusted, err := cfg.Proxy.TrustedPrefixes()
	if err != nil && logg != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "proxy.trusted_invalid")
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientAddress(trusted, logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	policies := ratelimit.PoliciesFromConfig(cfg.RateLimit)
	adminAuth := middleware.Auth(cfg.JWT, sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, readiness))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/license", func(r chi.Router) {
		r.Use(middleware.RateLimit(guard, policies.Public, logg))
		r.Post("/validate", controllers.LicenseValidate(licenseService, logg))
		r.Get("/status", controllers.LicenseStatus(licenseService, logg))
		r.Post("/deactivate", controllers.LicenseDeactivate(licenseService, logg))
		if cfg.App.IsDev() && cfg.FeatureFlags.TestEndpoints {
			r.Post("/test-validate", controllers.LicenseTestValidate(logg))
		}
	})

	r.Route("/api/admin/license", func(r chi.Router) {
		r.With(middleware.RateLimit(guard, policies.Login, logg)).Post("/login", controllers.AdminLogin(authService, logg))
		r.With(middleware.RateLimit(guard, policies.Admin, logg), adminAuth).Post("/logout", controllers.AdminLogout(authService, logg))
	})

	r.Route("/api/admin/keys", func(r chi.Router) {
		r.Use(middleware.RateLimit(guard, policies.Admin, logg))
		r.Use(adminAuth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin, enums.AdminRoleViewer))
			r.Get("/", controllers.AdminListKeys(licenseService, logg))
			r.Get("/{key}", controllers.AdminGetKey(licenseService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AdminRoleAdmin))
			r.Post("/", controllers.AdminCreateKey(licenseService, logg))
			r.Delete("/{key}", controllers.AdminRevokeKey(licenseService, logg))
		})
	})

	return r
}
