package executor

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/do"

	"github.com/pgEdge/filemigrate/internal/config"
)

func Provide(i *do.Injector) {
	provideExecutor(i)
}

func provideExecutor(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Executor, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewExecutor(logger, Options{
			Stdout:      os.Stdout,
			Stderr:      os.Stderr,
			Stdin:       os.Stdin,
			Timeout:     cfg.Executor.Timeout(),
			GracePeriod: cfg.Executor.GracePeriod(),
			MaxOutput:   cfg.Executor.MaxOutputBytes(),
		}), nil
	})
}
