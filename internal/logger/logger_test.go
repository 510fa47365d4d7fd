package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/config"
)

func TestProductionConsoleIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(config.LogConfig{Level: "info"}, true, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("comment created", zap.Int64("comment_id", 7))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "comment created", entry["msg"])
	assert.EqualValues(t, 7, entry["comment_id"])
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forum.log")
	log, err := NewFileOnly(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}, false)
	require.NoError(t, err)

	log.Debug("poll", zap.Int64("count", 3))
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"poll"`)
}

func TestFileOnlyWithoutFileIsNop(t *testing.T) {
	log, err := NewFileOnly(config.LogConfig{Level: "info"}, false)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty"}, false)
	assert.Error(t, err)
}
