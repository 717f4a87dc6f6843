package ratelimit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/petlife-licenser/pkg/config"
	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
)

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (Counter, error) {
	return Counter{}, errors.New("store down")
}

func newTestGuard(t *testing.T, store Store, clock *fakeClock) *Guard {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "ratelimit-test", Output: io.Discard})
	g, err := NewGuard(store, logg, metrics.NewLicenseMetrics(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	g.now = clock.Now
	return g
}

func TestGuardBlocksAfterLimit(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(t, newTestMemoryStore(clock), clock)
	policy := Policy{Name: PolicyLogin, Window: 15 * time.Minute, Limit: 5}
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := guard.Allow(ctx, policy, "10.0.0.9", "/api/admin/license/login")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should pass", i)
		}
		if d.Remaining != int64(5-i) {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 5-i, d.Remaining)
		}
	}

	clock.Advance(5 * time.Minute)
	d, err := guard.Allow(ctx, policy, "10.0.0.9", "/api/admin/license/login")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("sixth request should be blocked")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", d.Remaining)
	}
	if d.RetryAfter != 10*time.Minute || d.RetryAfterSeconds() != 600 {
		t.Fatalf("retry after should be the time left in the window, got %s", d.RetryAfter)
	}

	other, _ := guard.Allow(ctx, policy, "10.0.0.10", "/api/admin/license/login")
	if !other.Allowed {
		t.Fatal("a different caller has its own window")
	}
	otherPath, _ := guard.Allow(ctx, policy, "10.0.0.9", "/api/license/status")
	if !otherPath.Allowed {
		t.Fatal("a different path has its own window")
	}
}

func TestGuardDisabledPolicy(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(t, failingStore{}, clock)
	d, err := guard.Allow(context.Background(), Policy{Name: "off"}, "1.1.1.1", "/")
	if err != nil || !d.Allowed {
		t.Fatalf("disabled policy should allow without touching the store, d=%+v err=%v", d, err)
	}
}

func TestGuardPropagatesStoreErrors(t *testing.T) {
	clock := newFakeClock()
	guard := newTestGuard(t, failingStore{}, clock)
	policy := Policy{Name: PolicyPublic, Window: time.Hour, Limit: 100}
	if _, err := guard.Allow(context.Background(), policy, "1.1.1.1", "/"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestPoliciesFromConfig(t *testing.T) {
	p := PoliciesFromConfig(config.RateLimitConfig{
		PublicWindow: time.Hour, PublicLimit: 100,
		AdminWindow: time.Hour, AdminLimit: 500,
		LoginWindow: 15 * time.Minute, LoginLimit: 5,
	})
	if p.Public.Limit != 100 || p.Admin.Limit != 500 || p.Login.Limit != 5 {
		t.Fatalf("unexpected limits %+v", p)
	}
	if p.Login.Window != 15*time.Minute || p.Login.Name != PolicyLogin {
		t.Fatalf("unexpected login policy %+v", p.Login)
	}
}

func TestDecisionRetryAfterSecondsRoundsUp(t *testing.T) {
	if got := (Decision{RetryAfter: 1500 * time.Millisecond}).RetryAfterSeconds(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := (Decision{}).RetryAfterSeconds(); got != 1 {
		t.Fatalf("expected minimum of 1, got %d", got)
	}
}

func TestKey(t *testing.T) {
	if got := Key("public", "", "/x"); got != "public:unknown:/x" {
		t.Fatalf("unexpected key %q", got)
	}
}
