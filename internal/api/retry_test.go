package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, DefaultMaxRetries)
	}
	if cfg.BaseDelay != DefaultRetryDelay {
		t.Errorf("BaseDelay = %v, want %v", cfg.BaseDelay, DefaultRetryDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", cfg.MaxDelay)
	}
	if cfg.RetryableOn == nil {
		t.Fatal("RetryableOn is nil")
	}
	for _, code := range DefaultRetryOn {
		if !cfg.RetryableOn(code) {
			t.Errorf("RetryableOn(%d) = false", code)
		}
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		expected   bool
	}{
		{"first attempt, retryable", 0, 503, true},
		{"last allowed attempt", 2, 503, true},
		{"max attempts reached", 3, 503, false},
		{"non-retryable 400", 0, 400, false},
		{"non-retryable 404", 0, 404, false},
		{"non-retryable 409", 0, 409, false},
		{"retryable 429", 0, 429, true},
		{"retryable 408", 0, 408, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ShouldRetry(tt.attempt, tt.statusCode); got != tt.expected {
				t.Errorf("ShouldRetry(%d, %d) = %v, want %v", tt.attempt, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestRetryConfig_ShouldRetry_NilPredicate(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3}
	if cfg.ShouldRetry(0, 503) {
		t.Error("ShouldRetry() = true with no predicate")
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 30 * time.Second},
		{9, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryConfig_Delay_JitterStaysInBounds(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.5,
	}

	for i := 0; i < 100; i++ {
		if d := cfg.Delay(0); d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("Delay(0) = %v, want within [0.5s, 1.5s]", d)
		}
		if d := cfg.Delay(6); d > cfg.MaxDelay {
			t.Fatalf("Delay(6) = %v exceeds MaxDelay", d)
		}
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		name       string
		attempt    int
		retryAfter time.Duration
		expected   time.Duration
	}{
		{"no hint", 1, 0, 2 * time.Second},
		{"shorter hint ignored", 2, time.Second, 4 * time.Second},
		{"longer hint wins", 0, 5 * time.Second, 5 * time.Second},
		{"hint capped", 0, time.Minute, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.Backoff(tt.attempt, tt.retryAfter); got != tt.expected {
				t.Errorf("Backoff() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Wait(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	start := time.Now()
	if err := cfg.Wait(context.Background(), 0, 0); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait() returned too early: %v", elapsed)
	}
}

func TestRetryConfig_Wait_ContextDone(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: 10 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := cfg.Wait(ctx, 0, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() ignored cancellation for %v", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := parseRetryAfter(h); got != tt.expected {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

func BenchmarkRetryConfig_Delay(b *testing.B) {
	cfg := DefaultRetryConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Delay(i % 5)
	}
}
