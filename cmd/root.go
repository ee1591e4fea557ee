package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/config"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/filesystem"
	"github.com/pgEdge/filemigrate/internal/history"
	"github.com/pgEdge/filemigrate/internal/logging"
	"github.com/pgEdge/filemigrate/internal/migrate"
)

var (
	configPath string

	// logger is nil until the config has been loaded.
	logger *zerolog.Logger
)

func newRootCmd(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "filemigrate",
		Short: "Apply ordered, executable migrations to a project directory",
		Long: `filemigrate runs each executable file in the migrations directory exactly
once, in order of its numeric prefix, and records what it applied in a history
file beside the migrations.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Source order determines precedence. The last source loaded will
			// override any previous values.
			var sources []*config.Source
			if configPath != "" {
				sources = append(sources, config.NewFileSource(configPath))
			}
			sources = append(sources,
				config.NewEnvVarSource(),
				config.NewPFlagSource(cmd.Flags()),
			)

			config.Provide(i, sources...)
			logging.Provide(i)
			filesystem.Provide(i)
			catalog.Provide(i)
			history.Provide(i)
			executor.Provide(i)
			migrate.Provide(i)

			cfg, err := do.Invoke[config.Config](i)
			if err != nil {
				return fmt.Errorf("failed to load configs: %w", err)
			}
			if cfg.NoColor {
				color.NoColor = true
			}

			l, err := do.Invoke[zerolog.Logger](i)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = &l

			return nil
		},
	}
}

func Execute() {
	i := do.New()
	rootCmd := newRootCmd(i)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config-path", "c", "", "Path to a JSON or YAML config file.")
	flags.StringP("root", "r", ".", "Project root that migrations run in.")
	flags.StringP("migrations", "m", "migrations", "Migrations directory, relative to the project root.")
	flags.String("history-file", ".history", "Name of the history file inside the migrations directory.")
	flags.Duration("timeout", 0, "Stop a migration that runs longer than this. Zero means no limit.")
	flags.Duration("lock-wait", 0, "How long to wait for another run to release the history lock.")
	flags.String("max-output", "", "Keep at most this much output per migration for failure reports, e.g. '1MiB'.")
	flags.Bool("no-color", false, "Disable colored output.")
	flags.StringP("logging.level", "l", "", "The logging level, e.g. 'debug', 'info', 'error', etc.")
	flags.Bool("logging.pretty", true, "Use pretty logging instead of JSON logging.")

	rootCmd.AddCommand(
		newUpCommand(i),
		newStatusCommand(i),
		newCreateCommand(i),
		newBaselineCommand(i),
		newVersionCommand(i),
	)

	if err := rootCmd.Execute(); err != nil {
		if logger == nil {
			logging.Fatal(err, "command failed")
		} else {
			logger.Fatal().
				Err(err).
				Msg("command failed")
		}
		// Fatal is a no-op when the configured level is above it.
		os.Exit(1)
	}
}

// signalContext is cancelled when the process is interrupted or terminated.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func invokeEngine(i *do.Injector) (*migrate.Engine, error) {
	engine, err := do.Invoke[*migrate.Engine](i)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migration engine: %w", err)
	}
	return engine, nil
}
