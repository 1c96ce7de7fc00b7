package engine

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Searches log at debug level on every call
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func TestSearchLogsQuietInTests(t *testing.T) {
	require.GreaterOrEqual(t, zerolog.GlobalLevel(), zerolog.WarnLevel)
	require.False(t, log.Debug().Enabled())
}
