package reservation

import (
	"context"
	"errors"
	"time"

	"arcana/internal/models"
)

const (
	readRetryAttempts = 3
	readRetryBaseWait = 50 * time.Millisecond
)

// withReadRetry retries a read operation on transient storage failures with
// exponential backoff. Only reads are retried: retrying a write blindly
// could double-create a hold, so writes fail straight back to the caller.
// Typed domain outcomes are never retried.
func withReadRetry(ctx context.Context, op func() error) error {
	var err error
	wait := readRetryBaseWait

	for attempt := 0; attempt < readRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
		}

		err = op()
		if err == nil || isDomainErr(err) {
			return err
		}
	}
	return err
}

func isDomainErr(err error) bool {
	return errors.Is(err, models.ErrHoldNotFound) ||
		errors.Is(err, models.ErrHoldExpired) ||
		errors.Is(err, models.ErrBookingNotFound) ||
		errors.Is(err, models.ErrInvalidInput)
}
