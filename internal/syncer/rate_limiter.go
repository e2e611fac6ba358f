package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/fieldops/fieldmirror/internal/logging"
)

// RateLimiter shapes the timing of outgoing fetches with exponential backoff
// on error and a reset on success. State is process-local, scoped to one
// engine instance.
type RateLimiter struct {
	mu            sync.Mutex
	baseDelay     time.Duration
	maxDelay      time.Duration
	backoffFactor float64
	currentDelay  time.Duration
	errorCount    int
}

func NewRateLimiter(baseDelay, maxDelay time.Duration, backoffFactor float64) *RateLimiter {
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	if backoffFactor <= 1 {
		backoffFactor = 2.0
	}
	return &RateLimiter{
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
		backoffFactor: backoffFactor,
		currentDelay:  baseDelay,
	}
}

// Wait suspends the caller for the current delay, honoring cancellation.
func (l *RateLimiter) Wait(ctx context.Context) error {
	delay := l.CurrentDelay()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnSuccess resets the delay to base after a successful fetch.
func (l *RateLimiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentDelay = l.baseDelay
	l.errorCount = 0
}

// OnError grows the delay by the backoff factor, clamped to the max.
func (l *RateLimiter) OnError() {
	l.mu.Lock()
	l.errorCount++
	next := time.Duration(float64(l.currentDelay) * l.backoffFactor)
	if next > l.maxDelay {
		next = l.maxDelay
	}
	l.currentDelay = next
	count := l.errorCount
	l.mu.Unlock()

	logging.Warn("Fetch failed, backing off",
		"delay", next.String(),
		"error_count", count,
	)
}

// CurrentDelay returns the delay the next Wait will apply.
func (l *RateLimiter) CurrentDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentDelay
}

// ErrorCount returns the consecutive error count since the last success.
func (l *RateLimiter) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorCount
}
