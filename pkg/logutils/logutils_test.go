package logutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "session.log")

	logger, closer, err := New("info", logFile)
	require.NoError(t, err)

	logger.Info().Str("component", "loop").Msg("iteration started")
	closer()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"level":"info"`)
	assert.Contains(t, string(data), `"component":"loop"`)
	assert.Contains(t, string(data), "iteration started")
}

func TestNew_AppendsAcrossReopens(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "session.log")

	logger, closer, err := New("info", logFile)
	require.NoError(t, err)
	logger.Info().Msg("first")
	closer()

	logger, closer, err = New("info", logFile)
	require.NoError(t, err)
	logger.Info().Msg("second")
	closer()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "first")
	assert.Contains(t, content, "second")
	assert.Equal(t, 2, strings.Count(content, "\n"))
}

func TestNew_LevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "session.log")

	logger, closer, err := New("warn", logFile)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("visible")
	closer()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}
