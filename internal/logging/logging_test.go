package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProvidesBothLoggers(t *testing.T) {
	Init(slog.LevelInfo)

	require.NotNil(t, Structured())
	require.NotNil(t, HumanReadable())
	assert.NotNil(t, ForService("event-queue"))
}

func TestSetOutputRedirects(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	Structured().Info("structured message", "component", "test")
	HumanReadable().Info("human message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &entry))
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, human.String(), "human message")
}

func TestCustomLevelNames(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	Structured().Log(context.Background(), LevelFatal, "fatal condition")
	assert.Contains(t, structured.String(), `"level":"FATAL"`)
}

func TestEnableFileOutput(t *testing.T) {
	Init(slog.LevelInfo)

	// Nested directory exercises the directory-creation path.
	path := filepath.Join(t.TempDir(), "logs", "deskpulse.log")
	closeFunc, err := EnableFileOutput(path, slog.LevelInfo)
	require.NoError(t, err)

	Structured().Info("file sink active")
	require.NoError(t, closeFunc())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file sink active")
}

func TestNewFileLoggerCarriesServiceAttr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")

	logger, closeFunc, err := NewFileLogger(path, "datastore", slog.LevelInfo)
	require.NoError(t, err)

	logger.Info("service log line")
	require.NoError(t, closeFunc())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"service":"datastore"`)
	assert.Contains(t, string(content), "service log line")
}
