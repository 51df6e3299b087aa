package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solomia/solomia/internal/service"
)

func fastRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastRetryOptions())
	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return errors.New("persistent")
	}, fastRetryOptions())
	if !errors.Is(err, ErrMaxRetries) {
		t.Errorf("expected ErrMaxRetries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("bad request"), Retryable: false}
	}, fastRetryOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt for a non-retryable error, got %d", attempts)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return errors.New("transient")
	}, fastRetryOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestErrorPredicates(t *testing.T) {
	providerErr := NewProviderError("gemini", "embed", errors.New("503"))
	if !IsProviderError(providerErr) {
		t.Error("expected IsProviderError to match")
	}
	if IsParseError(providerErr) {
		t.Error("provider error must not be a parse error")
	}

	parseErr := NewParseError("not json", errors.New("bad token"))
	if !IsParseError(parseErr) {
		t.Error("expected IsParseError to match")
	}

	if !IsRetryable(ErrRateLimit) {
		t.Error("rate limits are retryable")
	}
	if IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}) {
		t.Error("explicitly non-retryable error must not be retryable")
	}
}
