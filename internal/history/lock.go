package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgEdge/filemigrate/internal/utils"
)

const lockPollInterval = 100 * time.Millisecond

// LockPath returns the lock file used to guard historyPath.
func LockPath(historyPath string) string {
	return historyPath + ".lock"
}

// FileLock is an exclusive advisory flock on a file beside the history. The
// kernel drops it when the holding process exits.
type FileLock struct {
	path   string
	logger zerolog.Logger
	file   *os.File
}

func NewFileLock(path string, logger zerolog.Logger) *FileLock {
	return &FileLock{
		path: path,
		logger: logger.With().
			Str("component", "history_lock").
			Str("path", path).
			Logger(),
	}
}

func (l *FileLock) Path() string {
	return l.path
}

// TryLock makes a single attempt to take the lock. It returns ErrLocked if
// another process holds it.
func (l *FileLock) TryLock() error {
	if l.file != nil {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lock file %s: %w", l.path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLocked, l.path)
		}
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}

	l.file = f
	l.logger.Debug().Msg("acquired history lock")

	return nil
}

// Lock retries TryLock until it succeeds or wait elapses.
func (l *FileLock) Lock(ctx context.Context, wait time.Duration) error {
	err := utils.PollUntil(ctx, wait, lockPollInterval, func() (bool, error) {
		err := l.TryLock()
		if errors.Is(err, ErrLocked) {
			l.logger.Debug().Msg("history is locked, waiting")
			return false, nil
		}
		return err == nil, err
	})
	if errors.Is(err, utils.ErrTimedOut) {
		return fmt.Errorf("%w: %s (waited %s)", ErrLocked, l.path, wait)
	}
	return err
}

// Unlock releases the lock. The lock file itself is left in place.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close lock file %s: %w", l.path, err)
	}

	l.logger.Debug().Msg("released history lock")

	return nil
}
