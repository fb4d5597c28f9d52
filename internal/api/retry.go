package api

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures retry behavior for failed HTTP requests.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps every delay, including server Retry-After hints.
	MaxDelay time.Duration
	// Multiplier is the growth factor between attempts.
	Multiplier float64
	// Jitter is the randomization factor in [0, 1].
	Jitter float64
	// RetryableOn reports whether a status code should be retried.
	RetryableOn func(statusCode int) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultRetryDelay,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.2,
		RetryableOn: func(statusCode int) bool {
			for _, code := range DefaultRetryOn {
				if code == statusCode {
					return true
				}
			}
			return false
		},
	}
}

// ShouldRetry determines if a request should be retried.
func (r *RetryConfig) ShouldRetry(attempt int, statusCode int) bool {
	if attempt >= r.MaxRetries || r.RetryableOn == nil {
		return false
	}
	return r.RetryableOn(statusCode)
}

// Delay returns the backoff before retry number attempt (zero-based). The
// result never exceeds MaxDelay, jitter included.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(r.BaseDelay) * math.Pow(r.Multiplier, float64(attempt))
	if r.Jitter > 0 {
		spread := delay * r.Jitter
		delay += (rand.Float64()*2 - 1) * spread
	}
	if r.MaxDelay > 0 && delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Backoff picks the wait before the next attempt: the server's Retry-After
// hint when it asks for longer than the computed delay, else the delay.
func (r *RetryConfig) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := r.Delay(attempt)
	if retryAfter <= delay {
		return delay
	}
	if r.MaxDelay > 0 && retryAfter > r.MaxDelay {
		return r.MaxDelay
	}
	return retryAfter
}

// Wait waits for the backoff before retrying, or until ctx is done.
func (r *RetryConfig) Wait(ctx context.Context, attempt int, retryAfter time.Duration) error {
	timer := time.NewTimer(r.Backoff(attempt, retryAfter))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP-date
// values are not used by the relay and yield zero.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
