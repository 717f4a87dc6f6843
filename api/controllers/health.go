package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/petlife-licenser/api/responses"
	pkgerrors "github.com/angelmondragon/petlife-licenser/pkg/errors"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by /health/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
	}
}

// HealthReady pings every configured dependency. Nil entries are skipped.
func HealthReady(logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}

		responses.WriteSuccess(w, healthResponse{Status: "ready", Timestamp: time.Now().UTC()})
	}
}
