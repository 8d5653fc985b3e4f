// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	Discovery DiscoveryConfig
	Identity  IdentityConfig
	Session   SessionConfig
	Store     StoreConfig
	Logging   LogConfig
}

// DiscoveryConfig locates the discovery service.
type DiscoveryConfig struct {
	Endpoint string        `envconfig:"DISCOVERY_ENDPOINT" default:"127.0.0.1:21116"`
	Timeout  time.Duration `envconfig:"DISCOVERY_TIMEOUT" default:"30s"`
}

// IdentityConfig carries the out-of-band long-lived identity key used to
// verify the remote's identity proof.
type IdentityConfig struct {
	PublicKey string `envconfig:"IDENTITY_PUBLIC_KEY"`
}

// SessionConfig tunes per-session behavior.
type SessionConfig struct {
	KeepAliveInterval time.Duration `envconfig:"KEEPALIVE_INTERVAL" default:"3s"`
	StatsInterval     time.Duration `envconfig:"STATS_INTERVAL" default:"1s"`
	Version           string        `envconfig:"CLIENT_VERSION" default:"1.5.0"`
}

// StoreConfig locates the local remembered-peer database.
type StoreConfig struct {
	Path string `envconfig:"PEER_STORE_PATH" default:"fleetlink-peers.db"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FLEETLINK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{Endpoint: "127.0.0.1:21116", Timeout: 30 * time.Second},
		Session: SessionConfig{
			KeepAliveInterval: 3 * time.Second,
			StatsInterval:     time.Second,
			Version:           "1.5.0",
		},
		Store:   StoreConfig{Path: "fleetlink-peers.db"},
		Logging: LogConfig{Level: "info"},
	}
}
