package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type memoryEntry struct {
	count  int64
	start  time.Time
	window time.Duration
}

func (e *memoryEntry) elapsed(now time.Time) bool {
	return now.Sub(e.start) > e.window
}

// MemoryStore keeps counters in process memory. Counters are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Increment counts a hit for key, opening a new window when the previous one has elapsed.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Counter, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.elapsed(now) {
		entry = &memoryEntry{start: now, window: window}
		s.entries[key] = entry
	}
	entry.count++

	return Counter{Count: entry.count, ResetAt: entry.start.Add(entry.window)}, nil
}

// Sweep evicts every entry whose window fully elapsed before now and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.elapsed(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps on a fixed cadence until ctx is canceled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
