package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New("info", path)
	require.NoError(t, err)

	logger.With(zap.String("component", "sync")).Info("synced", zap.Int("activities", 3))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "expected exactly one JSON line, got %q", data)
	assert.Equal(t, "synced", entry["msg"])
	assert.Equal(t, "sync", entry["component"])
	assert.EqualValues(t, 3, entry["activities"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	logger := NewNop()
	logger.Named("x").Info("ignored")
	assert.NotNil(t, logger.Logger)
}
