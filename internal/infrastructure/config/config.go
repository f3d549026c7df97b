package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Kernel    KernelConfig    `yaml:"kernel" toml:"kernel"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat" toml:"heartbeat"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host     string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	Compress bool   `envconfig:"HTTP_COMPRESS" default:"true" yaml:"compress" toml:"compress"`
}

// KernelConfig sizes the service-owned arena and caller processes.
type KernelConfig struct {
	ArenaBytes       uint64 `envconfig:"KERNEL_ARENA_BYTES" default:"67108864" yaml:"arena_bytes" toml:"arena_bytes"`
	MaxProcessMemory uint64 `envconfig:"KERNEL_MAX_PROCESS_MEMORY" default:"16777216" yaml:"max_process_memory" toml:"max_process_memory"`
	MaxProcesses     int    `envconfig:"KERNEL_MAX_PROCESSES" default:"1024" yaml:"max_processes" toml:"max_processes"`
}

// HeartbeatConfig holds background timer configuration.
type HeartbeatConfig struct {
	Enabled    bool `envconfig:"HEARTBEAT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
	IntervalMS int  `envconfig:"HEARTBEAT_INTERVAL_MS" default:"500" yaml:"interval_ms" toml:"interval_ms"`
}

// Interval returns the heartbeat period.
func (h HeartbeatConfig) Interval() time.Duration {
	return time.Duration(h.IntervalMS) * time.Millisecond
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads environment configuration and then overlays a YAML or TOML
// file chosen by extension. Keys present in the file win over the
// environment; absent keys keep their environment or default value.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Kernel.ArenaBytes == 0 {
		return fmt.Errorf("invalid config: kernel arena must be non-empty")
	}
	if c.Heartbeat.Enabled && c.Heartbeat.IntervalMS <= 0 {
		return fmt.Errorf("invalid config: heartbeat interval must be positive, got %dms", c.Heartbeat.IntervalMS)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid config: rate limit must be positive, got %d", c.RateLimit.RequestsPerSecond)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8000",
			Host:     "0.0.0.0",
			Compress: true,
		},
		Kernel: KernelConfig{
			ArenaBytes:       64 << 20,
			MaxProcessMemory: 16 << 20,
			MaxProcesses:     1024,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:    true,
			IntervalMS: 500,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
