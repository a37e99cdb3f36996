package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storefront.log")

	logger, err := NewLogger(Options{Service: "storefront", Env: "test", File: path})
	require.NoError(t, err)

	logger.Info("file_sink_check")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"file_sink_check"`)
	require.Contains(t, string(data), `"service":"storefront"`)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Options{Service: "storefront", Level: "loud"})
	require.Error(t, err)
}
