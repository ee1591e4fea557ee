package testutils

import (
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a logger that writes through t when tests are run with -v
// and discards everything otherwise.
func Logger(t testing.TB) zerolog.Logger {
	t.Helper()

	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.TraceLevel)
	}

	return zerolog.Nop()
}
