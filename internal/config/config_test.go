package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Engine, cfg.Engine)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netplanner.yaml")
	content := `
engine:
  policy: strict
  max_paths: 50
output:
  time_unit: weeks
server:
  read_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Engine.Policy)
	assert.Equal(t, 50, cfg.Engine.MaxPaths)
	assert.Equal(t, 1e-9, cfg.Engine.Epsilon, "unset keys keep their defaults")
	assert.Equal(t, "weeks", cfg.Output.TimeUnit)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  policy: lenient\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Policy")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero epsilon", func(c *Config) { c.Engine.Epsilon = 0 }},
		{"max paths below -1", func(c *Config) { c.Engine.MaxPaths = -2 }},
		{"confidence of 1", func(c *Config) { c.Output.Confidence = 1 }},
		{"empty time unit", func(c *Config) { c.Output.TimeUnit = "" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NETPLANNER_POLICY":    "strict",
		"NETPLANNER_MAX_PATHS": "7",
		"NETPLANNER_ADDR":      "127.0.0.1:9999",
		"NETPLANNER_LOG_LEVEL": "debug",
	}
	cfg := Default()
	require.NoError(t, applyEnv(&cfg, func(k string) string { return env[k] }))

	assert.Equal(t, "strict", cfg.Engine.Policy)
	assert.Equal(t, 7, cfg.Engine.MaxPaths)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "days", cfg.Output.TimeUnit)
}

func TestApplyEnv_RejectsBadMaxPaths(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, func(k string) string {
		if k == "NETPLANNER_MAX_PATHS" {
			return "lots"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NETPLANNER_MAX_PATHS")
	assert.Equal(t, 1000, cfg.Engine.MaxPaths)
}

func TestLoad_BadEnvIsAnError(t *testing.T) {
	t.Setenv("NETPLANNER_MAX_PATHS", "1.5")
	_, err := Load("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "activities", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"activities":3`)

	buf.Reset()
	LogConfig{Level: "debug", Format: "text"}.Logger(&buf).Debug("trace")
	assert.True(t, strings.Contains(buf.String(), "msg=trace"))
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.Policy = "strict"
	cfg.Engine.MaxPaths = -1

	opts := cfg.Engine.Options()
	assert.Equal(t, 1e-9, opts.Epsilon)
	assert.Equal(t, "strict", string(opts.Policy))
	assert.Equal(t, -1, opts.MaxPaths)
}
