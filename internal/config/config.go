// Package config provides configuration loading and defaults for the ridwell-mcp server.
package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups resource filters. Account filters match Ridwell
// account ids.
type SafetyConfig struct {
	Accounts ResourceFilter `yaml:"accounts"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" env:"RIDWELL_MCP_AUDIT_ENABLED, overwrite"`
	LogPath string `yaml:"log_path" env:"RIDWELL_MCP_AUDIT_LOG_PATH, overwrite"`
}

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port" env:"RIDWELL_MCP_PORT, overwrite"`
	AuthToken string `yaml:"auth_token" env:"RIDWELL_MCP_AUTH_TOKEN, overwrite"`
}

// RidwellConfig holds connection and credential details for the Ridwell API.
type RidwellConfig struct {
	URL      string `yaml:"url" env:"RIDWELL_API_URL, overwrite"`
	Email    string `yaml:"email" env:"RIDWELL_EMAIL, overwrite"`
	Password string `yaml:"password" env:"RIDWELL_PASSWORD, overwrite"`
	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout" env:"RIDWELL_TIMEOUT, overwrite"`
	// Retries bounds the number of re-authentication attempts per request.
	Retries      int `yaml:"retries" env:"RIDWELL_RETRIES, overwrite"`
	RetryDelayMS int `yaml:"retry_delay_ms" env:"RIDWELL_RETRY_DELAY_MS, overwrite"`
	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64 `yaml:"rate_limit" env:"RIDWELL_RATE_LIMIT, overwrite"`
	RateBurst int     `yaml:"rate_burst" env:"RIDWELL_RATE_BURST, overwrite"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c RidwellConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RetryDelay returns RetryDelayMS as a time.Duration.
func (c RidwellConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"RIDWELL_LOG_LEVEL, overwrite"`
	Pretty bool   `yaml:"pretty" env:"RIDWELL_LOG_PRETTY, overwrite"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"RIDWELL_METRICS_ENABLED, overwrite"`
	Path    string `yaml:"path"`
}

// Config is the top-level configuration structure for the ridwell-mcp server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ridwell RidwellConfig `yaml:"ridwell"`
	Safety  SafetyConfig  `yaml:"safety"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Keys absent from the file keep their DefaultConfig values. On error, nil is
// returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Ridwell: RidwellConfig{
			URL:          "https://api.ridwell.com",
			Timeout:      10,
			Retries:      3,
			RetryDelayMS: 1000,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from the process
// environment. Only variables that are set replace the existing values; see
// the env struct tags for the recognised names (RIDWELL_EMAIL,
// RIDWELL_PASSWORD, RIDWELL_API_URL, RIDWELL_MCP_AUTH_TOKEN, ...).
func ApplyEnvOverrides(ctx context.Context, cfg *Config) error {
	return applyEnv(ctx, cfg, envconfig.OsLookuper())
}

func applyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("apply env overrides: %w", err)
	}
	return nil
}

// Validate reports configuration that would prevent the client from
// authenticating.
func (c *Config) Validate() error {
	if c.Ridwell.URL == "" {
		return fmt.Errorf("ridwell.url is required")
	}
	if c.Ridwell.Email == "" || c.Ridwell.Password == "" {
		return fmt.Errorf("ridwell.email and ridwell.password are required")
	}
	if c.Ridwell.RateLimit < 0 {
		return fmt.Errorf("ridwell.rate_limit must not be negative, got %g", c.Ridwell.RateLimit)
	}
	if c.Ridwell.Retries < 0 {
		return fmt.Errorf("ridwell.retries must not be negative, got %d", c.Ridwell.Retries)
	}
	return nil
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
