package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryStore(clock *fakeClock) *MemoryStore {
	store := NewMemoryStore()
	store.now = clock.Now
	return store
}

func TestMemoryStoreWindowAnchoredAtFirstHit(t *testing.T) {
	clock := newFakeClock()
	store := newTestMemoryStore(clock)
	ctx := context.Background()
	start := clock.Now()

	c, _ := store.Increment(ctx, "k", time.Minute)
	if c.Count != 1 || !c.ResetAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("unexpected first counter %+v", c)
	}

	clock.Advance(59 * time.Second)
	c, _ = store.Increment(ctx, "k", time.Minute)
	if c.Count != 2 || !c.ResetAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("later hits must not move the window, got %+v", c)
	}

	// exactly at the boundary the window is still open
	clock.Advance(time.Second)
	c, _ = store.Increment(ctx, "k", time.Minute)
	if c.Count != 3 {
		t.Fatalf("expected count 3 at the boundary, got %d", c.Count)
	}

	clock.Advance(time.Millisecond)
	c, _ = store.Increment(ctx, "k", time.Minute)
	if c.Count != 1 || !c.ResetAt.Equal(clock.Now().Add(time.Minute)) {
		t.Fatalf("expected a fresh window, got %+v", c)
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := newTestMemoryStore(newFakeClock())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = store.Increment(ctx, "a", time.Minute)
	}
	c, _ := store.Increment(ctx, "b", time.Minute)
	if c.Count != 1 {
		t.Fatalf("expected independent counter for b, got %d", c.Count)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := newFakeClock()
	store := newTestMemoryStore(clock)
	ctx := context.Background()

	_, _ = store.Increment(ctx, "short", time.Minute)
	_, _ = store.Increment(ctx, "long", time.Hour)

	if removed := store.Sweep(clock.Now().Add(30 * time.Second)); removed != 0 {
		t.Fatalf("nothing should be swept yet, removed %d", removed)
	}
	if removed := store.Sweep(clock.Now().Add(2 * time.Minute)); removed != 1 {
		t.Fatalf("expected the short window to be swept, removed %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one remaining entry, got %d", store.Len())
	}
}

func TestMemoryStoreRunStopsOnCancel(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Increment(ctx, "shared", time.Hour)
		}()
	}
	wg.Wait()

	c, _ := store.Increment(ctx, "shared", time.Hour)
	if c.Count != 51 {
		t.Fatalf("expected 51 hits, got %d", c.Count)
	}
}
