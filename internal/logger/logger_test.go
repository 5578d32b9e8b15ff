// internal/logger/logger_test.go
package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "floorbot.log")
	cfg := DefaultConfig()
	cfg.LogFile = logFile

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("daemon started")
	_ = log.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "daemon started")
}

func TestScopedLoggers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "floorbot.log")

	log, err := New(cfg)
	require.NoError(t, err)

	assert.NotNil(t, log.WithComponent("scanner"))
	assert.NotNil(t, log.WithTransaction("0xabc"))
	assert.NotNil(t, log.WithOperation("sweep"))

	end := log.TrackPerformance("scan")
	end()
}
