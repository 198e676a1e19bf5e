package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	werrors "github.com/toyz/weaver/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ".", cfg.Load.Dir)
	assert.Equal(t, []string{"./..."}, cfg.Load.Patterns)
	assert.False(t, cfg.Load.Tests)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Empty(t, cfg.Rules.Files)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weaver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
rules:
  files: [http.yaml, store.yaml]
  module: example.com/app
load:
  tests: true
  patterns: [./internal/...]
output:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, []string{"http.yaml", "store.yaml"}, cfg.Rules.Files)
	assert.Equal(t, "example.com/app", cfg.Rules.Module)
	assert.True(t, cfg.Load.Tests)
	assert.Equal(t, []string{"./internal/..."}, cfg.Load.Patterns)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weaver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	t.Setenv("WEAVER_LOG_LEVEL", "error")
	t.Setenv("WEAVER_RULES_FILES", "a.yaml, b.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Rules.Files)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, werrors.ConfigurationErrorCode)

	t.Setenv("WEAVER_OUTPUT_FORMAT", "xml")
	_, err = Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ConfigurationErrorCode)
	assert.Contains(t, err.Error(), "output.format")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "json").Info("hello", slog.String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&buf, "warn", "text").Info("hidden")
	assert.Empty(t, buf.String())
}
