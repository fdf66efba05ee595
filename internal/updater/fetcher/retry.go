package fetcher

import (
	"context"
	"time"
)

// retryPolicy centralizes the retry budget and backoff schedules so they
// are not re-derived at every call site. Attempts are numbered from 0.
type retryPolicy struct {
	maxAttempts   int
	rateLimitBase time.Duration
	// sleep is injectable so tests can record the schedule instead of
	// actually waiting.
	sleep func(ctx context.Context, d time.Duration)
}

// rateLimitBackoff is the wait after a 429: (2^attempt) * base.
func (p retryPolicy) rateLimitBackoff(attempt int) time.Duration {
	return (1 << attempt) * p.rateLimitBase
}

// networkBackoff is the wait after a network or timeout failure:
// 2*(attempt+1) seconds, a gentler linear ramp than the 429 schedule.
func (p retryPolicy) networkBackoff(attempt int) time.Duration {
	return time.Duration(2*(attempt+1)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
