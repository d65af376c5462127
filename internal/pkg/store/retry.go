package store

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
)

// IsTransient reports whether err looks like a temporary storage failure that
// is safe to retry. Anything else (constraint violations, bad SQL, no rows) is
// a permanent failure and must surface immediately.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgErr.Code == pgerrcode.SerializationFailure,
			pgErr.Code == pgerrcode.DeadlockDetected:
			return true
		}
		return false
	}

	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// Do runs fn with fibonacci backoff, retrying transient storage errors up to
// maxAttempts total attempts. After exhaustion the failure is surfaced as a
// store_unavailable error so callers know a retry with backoff is legitimate.
func Do(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewFibonacci(100*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil && IsTransient(err) {
		return apperror.Wrap(err, http.StatusServiceUnavailable, apperror.KindStoreUnavailable, "storage temporarily unavailable")
	}
	return err
}
