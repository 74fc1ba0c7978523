// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pbartkiw/aviary/internal/config"
)

// testWriteSyncer collects log output in memory.
type testWriteSyncer struct {
	bytes.Buffer
}

func (w *testWriteSyncer) Sync() error { return nil }

func initTestLogger(t *testing.T, cfg config.LoggerConfig) *testWriteSyncer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	buf := &testWriteSyncer{}
	Initialize(cfg, zapcore.Lock(buf))
	return buf
}

func TestInitialize_ConsoleFormatWithColors(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "aviary-test",
		Colors:      config.ColorConfig{Info: "green"},
	})

	GetLogger().Info("remote session established")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "remote session established")
	assert.Contains(t, output, colorGreen)
	assert.Contains(t, output, colorReset)
	assert.Contains(t, output, "aviary-test.")
}

func TestInitialize_JSONFormat(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "aviary-test",
	})

	GetLogger().Info("session released")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "session released", entry["msg"])
}

func TestInitialize_LevelFiltering(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "warn",
		Format: "json",
	})

	GetLogger().Debug("too quiet")
	GetLogger().Info("also too quiet")
	GetLogger().Warn("loud enough")

	output := buf.String()
	assert.NotContains(t, output, "too quiet")
	assert.Contains(t, output, "loud enough")
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "shouting",
		Format: "json",
	})

	GetLogger().Debug("hidden")
	GetLogger().Info("visible")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
}

func TestInitialize_FileOutputIsJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "aviary.log")
	initTestLogger(t, config.LoggerConfig{
		Level:   "info",
		Format:  "console",
		LogFile: logFile,
		MaxSize: 1,
	})

	GetLogger().Info("written to both sinks")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "written to both sinks", entry["msg"])
}

func TestInitialize_OnlyOnce(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

	// A second initialization must not replace the logger.
	second := &testWriteSyncer{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.Lock(second))

	GetLogger().Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Empty(t, second.String())
}

func TestGetLogger_FallbackBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}
