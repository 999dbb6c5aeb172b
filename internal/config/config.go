// Package config loads voicegate configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all voicegate configuration.
type Config struct {
	// Engine identity, reported by /version and pinned by release manifests.
	Engine EngineConfig `yaml:"engine"`

	// HTTP server settings
	Server ServerConfig `yaml:"server"`

	// Voice contract settings
	Contract ContractConfig `yaml:"contract"`

	// Session persistence
	Sessions SessionsConfig `yaml:"sessions"`

	// Release bundle settings
	Release ReleaseConfig `yaml:"release"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig is the engine's reported identity.
type EngineConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	ReleaseStage string `yaml:"release_stage"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxPromptChars  int    `yaml:"max_prompt_chars"`
}

// ContractConfig configures the voice contract document.
type ContractConfig struct {
	Path     string `yaml:"path"`
	LockPath string `yaml:"lock_path"`
	// WatchDrift enables the fsnotify drift watcher. Drift is logged, never
	// hot-reloaded.
	WatchDrift bool `yaml:"watch_drift"`
}

// SessionsConfig configures session persistence.
type SessionsConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReleaseConfig configures release bundle emission and verification.
type ReleaseConfig struct {
	Dir             string `yaml:"dir"`
	VerifyOnStartup bool   `yaml:"verify_on_startup"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:         "voicegate",
			Version:      "14.4.0",
			ReleaseStage: "frozen",
		},

		Server: ServerConfig{
			Addr:            ":8090",
			ReadTimeout:     "10s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
			MaxPromptChars:  10000,
		},

		Contract: ContractConfig{
			Path:       "data/voice_contract.json",
			LockPath:   "data/voice_contract.lock",
			WatchDrift: true,
		},

		Sessions: SessionsConfig{
			DatabasePath: "data/sessions.db",
		},

		Release: ReleaseConfig{
			Dir:             "release",
			VerifyOnStartup: false,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file means defaults; env overrides still apply.
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("VOICEGATE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("VOICEGATE_CONTRACT"); path != "" {
		c.Contract.Path = path
	}
	if path := os.Getenv("VOICEGATE_DB"); path != "" {
		c.Sessions.DatabasePath = path
	}
	if level := os.Getenv("VOICEGATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDurationOr(c.Server.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.Server.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Engine.Name == "" {
		return fmt.Errorf("engine.name is required")
	}
	if c.Engine.Version == "" {
		return fmt.Errorf("engine.version is required")
	}
	if c.Contract.Path == "" {
		return fmt.Errorf("contract.path is required")
	}
	if c.Server.MaxPromptChars <= 0 {
		return fmt.Errorf("server.max_prompt_chars must be positive")
	}
	return nil
}
