package reconnect

import (
	"context"
	"math/rand"
	"time"
)

// Backoff produces jittered exponential delays between attempts.
type Backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

// NewBackoff creates a Backoff that starts at base and doubles up to max.
func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{base: base, max: max}
}

// Next returns the next delay, doubling the previous one up to the maximum.
// Jitter is ~ +/-20%.
func (b *Backoff) Next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}

// Sleep waits for the next delay or until ctx is done, whichever comes
// first. Returns ctx.Err() if the context expired.
func (b *Backoff) Sleep(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the progression so the next delay starts from base again.
func (b *Backoff) Reset() { b.cur = 0 }
