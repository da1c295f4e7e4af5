package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("retries busy database until success", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := withRetry(context.Background(), cfg, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := withRetry(context.Background(), cfg, func() error {
			attempts++
			return errors.New("database is locked")
		})
		if err == nil {
			t.Fatalf("expected error after exhausting retries")
		}
		if attempts != cfg.MaxRetries+1 {
			t.Fatalf("expected %d attempts, got %d", cfg.MaxRetries+1, attempts)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		boom := errors.New("syntax error")
		err := withRetry(context.Background(), cfg, func() error {
			attempts++
			return boom
		})
		if !errors.Is(err, boom) || attempts != 1 {
			t.Fatalf("expected single attempt with original error, got %d attempts, %v", attempts, err)
		}
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, cfg, func() error {
			return errors.New("SQLITE_BUSY")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
