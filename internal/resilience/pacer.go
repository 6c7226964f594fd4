package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates outbound calls. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a token bucket that refills one token every interval and
// holds at most burst tokens. A non-positive interval disables pacing.
func NewPacer(interval time.Duration, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// Unpaced returns a Pacer that never blocks.
func Unpaced() Pacer {
	return rate.NewLimiter(rate.Inf, 1)
}
