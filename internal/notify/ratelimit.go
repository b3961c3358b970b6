package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited spaces sends to stay under a downstream provider's limit.
type RateLimited struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter allowing perSecond sends and the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimited(next Notifier, perSecond float64, burst int) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Send(ctx context.Context, msg Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", transportErr(msg.To, err)
	}
	return r.next.Send(ctx, msg)
}
