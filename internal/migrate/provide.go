package migrate

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/afero"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/config"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/history"
)

func Provide(i *do.Injector) {
	provideEngine(i)
}

func provideEngine(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Engine, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		paths, err := do.Invoke[config.Paths](i)
		if err != nil {
			return nil, err
		}
		fs, err := do.Invoke[afero.Fs](i)
		if err != nil {
			return nil, err
		}
		builder, err := do.Invoke[*catalog.Builder](i)
		if err != nil {
			return nil, err
		}
		store, err := do.Invoke[*history.Store](i)
		if err != nil {
			return nil, err
		}
		lock, err := do.Invoke[*history.FileLock](i)
		if err != nil {
			return nil, err
		}
		exec, err := do.Invoke[*executor.Executor](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewEngine(paths, cfg.LockWait(), fs, builder, store, lock, exec, logger), nil
	})
}
