package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pgEdge/filemigrate/internal/config"
)

const defaultLevel = zerolog.WarnLevel

// NewLogger initializes and configures a new zerolog.Logger. Logs go to stderr
// so that stdout is left to migration output and command reports.
func NewLogger(cfg config.Config) (zerolog.Logger, error) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(out io.Writer, cfg config.Config) (zerolog.Logger, error) {
	level := defaultLevel
	if cfg.Logging.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to parse log level '%s': %w", cfg.Logging.Level, err)
		}

		level = l
	}

	if cfg.Logging.Pretty {
		out = zerolog.ConsoleWriter{
			Out:     out,
			NoColor: cfg.NoColor,
		}
	}

	logger := zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(level)

	return logger, nil
}

// Fatal calls Fatal on the default zerolog logger. It's intended to be used in
// panic recovery or other places where a logger instance isn't available.
func Fatal(err any, msg string) {
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()

	switch v := err.(type) {
	case error:
		logger.Fatal().
			Err(v).
			Msg(msg)
	default:
		logger.Fatal().
			Interface("error", err).
			Msg(msg)
	}
}
