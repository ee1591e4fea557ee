package catalog

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/afero"

	"github.com/pgEdge/filemigrate/internal/config"
)

func Provide(i *do.Injector) {
	provideBuilder(i)
}

func provideBuilder(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Builder, error) {
		cfg, err := do.Invoke[config.Config](i)
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
		return NewBuilder(fs, logger, cfg.Extensions), nil
	})
}
