package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/adapters/logger"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Info("some message")

	assert.Contains(t, buf.String(), "some message")
	assert.Contains(t, buf.String(), "info")
}

func TestLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Warn("some warning")

	assert.Contains(t, buf.String(), "some warning")
	assert.Contains(t, buf.String(), "warning")
}

func TestLogger_DebugHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, lg.Configure(domain.LogLevelDebug, ""))
	lg.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_Mute(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)
	require.NoError(t, lg.Configure(domain.LogLevelMute, ""))

	lg.Info("quiet")
	lg.Error(os.ErrPermission)

	assert.Empty(t, buf.String())
}

func TestLogger_ErrorFlattensMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	err := zerr.With(zerr.Wrap(os.ErrPermission, "failed to open file"), "path", "/tmp/x")
	lg.Error(zerr.Wrap(err, "hashing failed"))

	out := buf.String()
	assert.Contains(t, out, "permission denied")
	assert.Contains(t, out, "path=/tmp/x")
	assert.Contains(t, out, "error")
}

func TestLogger_WithErrorKeepsMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	err := zerr.With(zerr.Wrap(os.ErrPermission, "failed to write file"), "path", "/tmp/content-hash")
	lg.WithError(err).Warn("failed to persist content hash")

	out := buf.String()
	assert.Contains(t, out, "failed to persist content hash")
	assert.Contains(t, out, "path=/tmp/content-hash")
	assert.Contains(t, out, "permission denied")
	assert.NotContains(t, out, "hash: failed")
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.WithField("fingerprint", "abc123").Info("cache hit")

	assert.Contains(t, buf.String(), "fingerprint=abc123")
	assert.Contains(t, buf.String(), "cache hit")
}

func TestLogger_ConfigureWritesRotatedFile(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)
	dir := filepath.Join(t.TempDir(), "logs")

	require.NoError(t, lg.Configure(domain.LogLevelInfo, dir))
	lg.WithField("package", "app").Info("written to file")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(filepath.Join(dir, domain.LogFileName))
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "written to file", record["msg"])
	assert.Equal(t, "app", record["package"])
	assert.Contains(t, buf.String(), "written to file")
}
