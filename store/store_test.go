package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsDeadlock(t *testing.T) {
	deadlock := &pgconn.PgError{Code: DeadlockErrorCode}
	if !isDeadlock(deadlock) {
		t.Error("expected PgError with code 40P01 to be classified as a deadlock")
	}

	other := &pgconn.PgError{Code: "23505"}
	if isDeadlock(other) {
		t.Error("did not expect a unique-violation error to be classified as a deadlock")
	}

	if isDeadlock(errors.New("plain error")) {
		t.Error("did not expect a non-pg error to be classified as a deadlock")
	}
}

func TestWithDeadlockRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := withDeadlockRetry(context.Background(), time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return &pgconn.PgError{Code: DeadlockErrorCode}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithDeadlockRetryPropagatesOtherErrors(t *testing.T) {
	wantErr := errors.New("boom")
	err := withDeadlockRetry(context.Background(), time.Millisecond, func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected non-deadlock error to propagate immediately, got %v", err)
	}
}

func TestWithDeadlockRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withDeadlockRetry(ctx, time.Second, func() error {
		return &pgconn.PgError{Code: DeadlockErrorCode}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
