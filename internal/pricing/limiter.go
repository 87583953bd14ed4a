package pricing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/renaobrien/elutio/internal/observability"
)

// Limiter wraps a token-bucket rate limiter for one price provider.
type Limiter struct {
	limiter *rate.Limiter
	source  string
}

// NewLimiter allows rps requests per second with a burst of burst tokens.
// A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int, source string) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		source:  source,
	}
}

// Wait blocks until the limiter allows one event, or ctx is done.
// Uses Reserve() so exactly one token is consumed per call.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		observability.RecordRateLimitWait(l.source)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}
