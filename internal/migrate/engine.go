package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/config"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/history"
)

// Engine applies pending migrations from a migrations directory and reports
// on their state. An Engine is used for a single command invocation.
type Engine struct {
	paths    config.Paths
	lockWait time.Duration
	fs       afero.Fs
	builder  *catalog.Builder
	store    *history.Store
	lock     *history.FileLock
	executor *executor.Executor
	logger   zerolog.Logger
}

// NewEngine creates a new migration engine.
func NewEngine(
	paths config.Paths,
	lockWait time.Duration,
	fs afero.Fs,
	builder *catalog.Builder,
	store *history.Store,
	lock *history.FileLock,
	exec *executor.Executor,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		paths:    paths,
		lockWait: lockWait,
		fs:       fs,
		builder:  builder,
		store:    store,
		lock:     lock,
		executor: exec,
		logger: logger.With().
			Str("component", "migration_engine").
			Logger(),
	}
}

func (e *Engine) Paths() config.Paths {
	return e.paths
}

// evaluation is the result of comparing the catalog with the history.
type evaluation struct {
	catalog        *catalog.Catalog
	reconciliation *history.Reconciliation
}

// evaluate builds the catalog, loads the history and reconciles them. Any
// problem is returned as an error.
func (e *Engine) evaluate() (*evaluation, error) {
	cat, err := e.builder.Build(e.paths.MigrationsDir)
	if err != nil {
		return nil, err
	}
	if err := e.store.Load(); err != nil {
		return nil, err
	}
	r := e.store.Reconcile(cat)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return &evaluation{
		catalog:        cat,
		reconciliation: r,
	}, nil
}

// withLock runs f while holding the history lock.
func (e *Engine) withLock(ctx context.Context, f func() error) (err error) {
	if err := e.lock.Lock(ctx, e.lockWait); err != nil {
		return fmt.Errorf("failed to lock history: %w", err)
	}
	defer func() {
		if unlockErr := e.lock.Unlock(); unlockErr != nil {
			err = errors.Join(err, unlockErr)
		}
	}()

	return f()
}
