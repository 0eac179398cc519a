package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
}

func TestNewWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Output: &buf})
	logger.Debug("hidden")
	logger.Info("contact delivered", zap.String("submission_id", "01H"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "contact delivered", entry["message"])
	assert.Equal(t, "01H", entry["submission_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewTeesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.log")
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Output: &buf, File: path, MaxSizeMB: 1})
	logger.Info("hello")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"hello"`)
	assert.Contains(t, buf.String(), "hello")
}

func TestContextRoundTrip(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, context.Background(), WithLogger(context.Background(), nil))
}
