package testlog

import (
	"testing"

	"github.com/danmuck/sbewire/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start configures test logging and returns a logger tagged with the test
// name, for components that take one.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Msgf("test=%s", t.Name())
	return log.Logger.With().Str("test", t.Name()).Logger()
}
