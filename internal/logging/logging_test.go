package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebk/rehab-clicker/internal/logging"
)

func TestNewWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&buf, "info", false)
	require.NoError(t, err)

	botLog := logging.Component(log, "bot")
	botLog.Info().Int("money", 3).Msg("earned")
	log.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "bot", line["component"])
	assert.Equal(t, "earned", line["message"])
	assert.Equal(t, float64(3), line["money"])
	assert.Contains(t, line, "time")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	log, closer, err := logging.Open(path, "debug", false)
	require.NoError(t, err)

	log.Debug().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
