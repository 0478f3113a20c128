package testlog

import (
	"testing"

	"github.com/danmuck/xhrcomm/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start configures the test logging profile and tags the output with the
// running test.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Msgf("test=%s", t.Name())
}

// Logger writes through t.Log, so output is attributed to t and only shown
// for failing or verbose runs.
func Logger(t testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:          zerolog.NewTestWriter(t),
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}).Level(zerolog.DebugLevel).With().Str("test", t.Name()).Logger()
}
