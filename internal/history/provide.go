package history

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/afero"

	"github.com/pgEdge/filemigrate/internal/config"
)

func Provide(i *do.Injector) {
	provideStore(i)
	provideFileLock(i)
}

func provideStore(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Store, error) {
		paths, err := do.Invoke[config.Paths](i)
		if err != nil {
			return nil, err
		}
		fs, err := do.Invoke[afero.Fs](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewStore(fs, paths.HistoryFile, logger), nil
	})
}

func provideFileLock(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*FileLock, error) {
		paths, err := do.Invoke[config.Paths](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewFileLock(LockPath(paths.HistoryFile), logger), nil
	})
}
