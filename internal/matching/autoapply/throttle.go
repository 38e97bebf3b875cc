package autoapply

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum delay between consecutive submissions. It is shared by all
// workers of a run.
type Throttle struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time
}

func NewThrottle(minDelay time.Duration) *Throttle {
	return &Throttle{minDelay: minDelay}
}

// Wait blocks until minDelay has passed since the previous Wait returned.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.minDelay <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if remaining := t.minDelay - time.Since(t.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	t.last = time.Now()
	return nil
}
