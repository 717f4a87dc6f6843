package ratelimit

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
)

const (
	PolicyPublic = "public"
	PolicyAdmin  = "admin"
	PolicyLogin  = "login"
)

// Policy is one throttling surface: at most Limit requests per Window for each caller and path.
type Policy struct {
	Name    string
	Window  time.Duration
	Limit   int64
	Message string
}

func (p Policy) enabled() bool {
	return p.Window > 0 && p.Limit > 0
}

// Policies holds the three surfaces of the API.
type Policies struct {
	Public Policy
	Admin  Policy
	Login  Policy
}

// PoliciesFromConfig maps rate limit configuration to policies.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		Public: Policy{
			Name:    PolicyPublic,
			Window:  cfg.PublicWindow,
			Limit:   int64(cfg.PublicLimit),
			Message: "too many license requests, try again later",
		},
		Admin: Policy{
			Name:    PolicyAdmin,
			Window:  cfg.AdminWindow,
			Limit:   int64(cfg.AdminLimit),
			Message: "too many admin requests, try again later",
		},
		Login: Policy{
			Name:    PolicyLogin,
			Window:  cfg.LoginWindow,
			Limit:   int64(cfg.LoginLimit),
			Message: "too many login attempts, try again in a few minutes",
		},
	}
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one.
func (d Decision) RetryAfterSeconds() int64 {
	secs := int64(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Guard applies policies against a counter store.
type Guard struct {
	store   Store
	logg    *logger.Logger
	metrics *metrics.LicenseMetrics
	now     func() time.Time
}

// NewGuard builds a guard. metrics may be nil.
func NewGuard(store Store, logg *logger.Logger, m *metrics.LicenseMetrics) (*Guard, error) {
	if store == nil {
		return nil, errors.New("rate limit store required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Guard{store: store, logg: logg, metrics: m, now: time.Now}, nil
}

// Allow counts the request of ip against path under policy. A disabled policy always allows.
func (g *Guard) Allow(ctx context.Context, policy Policy, ip, path string) (Decision, error) {
	if !policy.enabled() {
		return Decision{Allowed: true}, nil
	}

	counter, err := g.store.Increment(ctx, Key(policy.Name, ip, path), policy.Window)
	if err != nil {
		return Decision{}, err
	}

	now := g.now()
	remaining := policy.Limit - counter.Count
	if remaining < 0 {
		remaining = 0
	}
	decision := Decision{
		Allowed:   counter.Count <= policy.Limit,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   counter.ResetAt,
	}
	if !decision.Allowed {
		decision.RetryAfter = counter.ResetAt.Sub(now)
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
		g.metrics.IncBlocked(policy.Name)
		ctx = g.logg.WithFields(ctx, map[string]any{
			"policy": policy.Name,
			"ip":     ip,
			"path":   path,
			"count":  counter.Count,
			"limit":  policy.Limit,
		})
		g.logg.Warn(ctx, "ratelimit.blocked")
	}
	return decision, nil
}

// Key builds the counter key for a caller and path under a policy.
func Key(policy, ip, path string) string {
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{policy, ip, path}, ":")
}
