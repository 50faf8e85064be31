// Package config loads platform configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all platform configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Registry  RegistryConfig
	Compiler  CompilerConfig
	DevBridge DevBridgeConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig holds durable state configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" default:"./data"`
}

// RegistryConfig holds the remote app catalog configuration.
type RegistryConfig struct {
	URL string `envconfig:"REGISTRY_URL" default:""`
}

// CompilerConfig holds the quick-app compiler bootstrap configuration.
type CompilerConfig struct {
	// SourceURL points at the single-file compiler script fetched
	// lazily on first compile.
	SourceURL string `envconfig:"COMPILER_URL" default:""`
	Version   string `envconfig:"COMPILER_VERSION" default:"1"`
}

// DevBridgeConfig holds the hot-reload bridge configuration.
type DevBridgeConfig struct {
	Enabled bool          `envconfig:"DEV_BRIDGE_ENABLED" default:"false"`
	URL     string        `envconfig:"DEV_BRIDGE_URL" default:"http://localhost:5181"`
	Backoff time.Duration `envconfig:"DEV_BRIDGE_BACKOFF" default:"3s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8090", Host: "0.0.0.0"},
		Storage:   StorageConfig{Path: "./data"},
		Compiler:  CompilerConfig{Version: "1"},
		DevBridge: DevBridgeConfig{URL: "http://localhost:5181", Backoff: 3 * time.Second},
		Logging:   LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 200, Enabled: true},
	}
}
