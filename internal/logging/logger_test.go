package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/filemigrate/internal/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output at configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, config.Config{
			Logging: config.Logging{Level: "info"},
		})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

		logger.Debug().Msg("hidden")
		logger.Info().Str("migration", "001-init").Msg("running migration")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "running migration", entry["message"])
		assert.Equal(t, "001-init", entry["migration"])
		assert.Equal(t, "info", entry["level"])
	})

	t.Run("default level", func(t *testing.T) {
		logger, err := newLogger(&bytes.Buffer{}, config.Config{})
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("pretty output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := newLogger(&buf, config.Config{
			NoColor: true,
			Logging: config.Logging{Level: "warn", Pretty: true},
		})
		require.NoError(t, err)

		logger.Warn().Msg("history has orphaned entries")
		assert.Contains(t, buf.String(), "WRN history has orphaned entries")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := newLogger(&bytes.Buffer{}, config.Config{
			Logging: config.Logging{Level: "loud"},
		})
		assert.ErrorContains(t, err, "failed to parse log level 'loud'")
	})
}
