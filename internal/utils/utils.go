package utils

import (
	"context"
	"errors"
	"time"
)

var ErrTimedOut = errors.New("operation timed out")

// PollUntil calls f every interval until it reports done, returns an error, or
// the timeout elapses. f is always called at least once, so a zero timeout
// means a single attempt. ErrTimedOut is returned when the timeout elapses
// before f reports done.
func PollUntil(ctx context.Context, timeout, interval time.Duration, f func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		done, err := f()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrTimedOut
		}

		wait := min(interval, time.Until(deadline))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
