package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Platform  PlatformConfig  `yaml:"platform"`
	Remote    RemoteConfig    `yaml:"remote"`
	Sync      SyncConfig      `yaml:"sync"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// PlatformConfig locates the on-device health platform service.
type PlatformConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RemoteConfig locates the remote fitness service batches are shipped to.
type RemoteConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type SyncConfig struct {
	// IntervalMinutes enables the daemon's periodic scheduler; 0 means
	// manual syncs only.
	IntervalMinutes int `yaml:"interval_minutes"`
	// DedupeSources selects the origin-deduplicating aggregation path for
	// steps and active calories. Defaults to true when omitted.
	DedupeSources *bool `yaml:"dedupe_sources"`
	// StateDir holds the preferences database. Defaults to ~/.vitalsync.
	StateDir string `yaml:"state_dir"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// Timeout returns the platform request timeout.
func (p PlatformConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Dedupe reports whether origin deduplication is enabled (the default).
func (s SyncConfig) Dedupe() bool {
	return s.DedupeSources == nil || *s.DedupeSources
}

// Interval returns the scheduler interval, 0 when disabled.
func (s SyncConfig) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// ResolveStateDir returns the configured state directory, defaulting to
// ~/.vitalsync.
func (s SyncConfig) ResolveStateDir() (string, error) {
	if s.StateDir != "" {
		return s.StateDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".vitalsync"), nil
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix VITALSYNC_ and underscore-separated
// paths:
//
//	VITALSYNC_SERVER_HOST, VITALSYNC_SERVER_PORT,
//	VITALSYNC_PLATFORM_URL, VITALSYNC_REMOTE_URL, VITALSYNC_REMOTE_API_KEY,
//	VITALSYNC_STATE_DIR, VITALSYNC_AUTH_API_KEY, VITALSYNC_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VITALSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VITALSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VITALSYNC_PLATFORM_URL"); v != "" {
		cfg.Platform.URL = v
	}
	if v := os.Getenv("VITALSYNC_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("VITALSYNC_REMOTE_API_KEY"); v != "" {
		cfg.Remote.APIKey = v
	}
	if v := os.Getenv("VITALSYNC_STATE_DIR"); v != "" {
		cfg.Sync.StateDir = v
	}
	if v := os.Getenv("VITALSYNC_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("VITALSYNC_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Platform.URL == "" {
		return fmt.Errorf("platform.url is required")
	}
	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url is required")
	}
	if c.Remote.APIKey == "" {
		return fmt.Errorf("remote.api_key is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}
