package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/angelmondragon/petlife-licenser/pkg/redis"
)

func TestRedisStoreSharesWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	store, err := NewRedisStore(redisclient.Wrap(raw))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	ctx := context.Background()
	key := Key(PolicyLogin, "10.1.1.1", "/api/admin/license/login")

	c, err := store.Increment(ctx, key, 15*time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if c.Count != 1 || !c.ResetAt.Equal(fixed.Add(15*time.Minute)) {
		t.Fatalf("unexpected first counter %+v", c)
	}

	c, err = store.Increment(ctx, key, 15*time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if c.Count != 2 {
		t.Fatalf("expected 2, got %d", c.Count)
	}
	if !mr.Exists("lic:rate_limit:" + key) {
		t.Fatal("expected namespaced counter key in redis")
	}

	mr.FastForward(16 * time.Minute)
	c, _ = store.Increment(ctx, key, 15*time.Minute)
	if c.Count != 1 {
		t.Fatalf("expected reset after window, got %d", c.Count)
	}
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected error without client")
	}
}
