package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Server.Compress)

	// Kernel config
	assert.Equal(t, uint64(64<<20), cfg.Kernel.ArenaBytes)
	assert.Equal(t, uint64(16<<20), cfg.Kernel.MaxProcessMemory)
	assert.Equal(t, 1024, cfg.Kernel.MaxProcesses)

	// Heartbeat config
	assert.True(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Heartbeat.Interval())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                      "9000",
		"HOST":                      "127.0.0.1",
		"HTTP_COMPRESS":             "false",
		"KERNEL_ARENA_BYTES":        "4096",
		"KERNEL_MAX_PROCESS_MEMORY": "8192",
		"KERNEL_MAX_PROCESSES":      "8",
		"HEARTBEAT_ENABLED":         "false",
		"HEARTBEAT_INTERVAL_MS":     "125",
		"LOG_LEVEL":                 "debug",
		"LOG_DEV":                   "true",
		"RATE_LIMIT_RPS":            "500",
		"RATE_LIMIT_BURST":          "1000",
		"RATE_LIMIT_ENABLED":        "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.False(t, cfg.Server.Compress)
	assert.Equal(t, uint64(4096), cfg.Kernel.ArenaBytes)
	assert.Equal(t, uint64(8192), cfg.Kernel.MaxProcessMemory)
	assert.Equal(t, 8, cfg.Kernel.MaxProcesses)
	assert.False(t, cfg.Heartbeat.Enabled)
	assert.Equal(t, 125*time.Millisecond, cfg.Heartbeat.Interval())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable arena", "KERNEL_ARENA_BYTES", "lots"},
		{"empty arena", "KERNEL_ARENA_BYTES", "0"},
		{"zero heartbeat", "HEARTBEAT_INTERVAL_MS", "0"},
		{"negative rate", "RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sortcall.yaml")
	content := `
server:
  port: "9100"
kernel:
  arena_bytes: 1048576
heartbeat:
  interval_ms: 250
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, uint64(1<<20), cfg.Kernel.ArenaBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.Heartbeat.Interval())
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, uint64(16<<20), cfg.Kernel.MaxProcessMemory)
	assert.True(t, cfg.Heartbeat.Enabled)
}

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sortcall.toml")
	content := `
[server]
host = "127.0.0.1"

[kernel]
max_processes = 4

[rate_limit]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 4, cfg.Kernel.MaxProcesses)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "sortcall.ini")
	require.NoError(t, os.WriteFile(ini, []byte("port=1"), 0o600))
	_, err = LoadFile(ini)
	assert.ErrorContains(t, err, "unsupported")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[kernel]\narena_bytes = 0\n"), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "arena")
}
