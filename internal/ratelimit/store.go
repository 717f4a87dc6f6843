package ratelimit

import (
	"context"
	"time"
)

// Counter is the state of one key's window after an increment.
type Counter struct {
	Count   int64
	ResetAt time.Time
}

// Store counts hits per key inside a window that starts on the key's first hit.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Counter, error)
}
