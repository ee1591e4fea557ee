package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pgEdge/filemigrate/internal/utils"
)

func TestPollUntil(t *testing.T) {
	t.Run("done on first attempt", func(t *testing.T) {
		var calls int
		err := utils.PollUntil(t.Context(), 0, time.Millisecond, func() (bool, error) {
			calls++
			return true, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero timeout makes a single attempt", func(t *testing.T) {
		var calls int
		err := utils.PollUntil(t.Context(), 0, time.Millisecond, func() (bool, error) {
			calls++
			return false, nil
		})
		assert.ErrorIs(t, err, utils.ErrTimedOut)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until done", func(t *testing.T) {
		var calls int
		err := utils.PollUntil(t.Context(), time.Second, time.Millisecond, func() (bool, error) {
			calls++
			return calls == 3, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns callback error", func(t *testing.T) {
		boom := errors.New("boom")
		err := utils.PollUntil(t.Context(), time.Second, time.Millisecond, func() (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := utils.PollUntil(ctx, time.Minute, 10*time.Millisecond, func() (bool, error) {
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
