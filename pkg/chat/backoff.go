package chat

import (
	"context"
	"time"
)

const (
	maxAttempts = 3
	baseDelay   = 1 * time.Second
	maxDelay    = 60 * time.Second
	callTimeout = 30 * time.Second
)

// BackoffDelay computes the wait before retry number attempt (0-based).
// The exponential schedule min(base * 2^attempt, max) applies unless the
// provider supplied an explicit retry hint, which wins.
func BackoffDelay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	delay := baseDelay << attempt
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Sleeper blocks for the given duration or until ctx is done. Tests inject a
// recording fake so retry schedules are asserted without real waits.
type Sleeper func(ctx context.Context, d time.Duration)

func defaultSleeper(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
