// Package config loads connection and server defaults from TOML files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig describes one listening bus endpoint.
type ServerConfig struct {
	Name           string   `toml:"name"`
	SocketPath     string   `toml:"socket_path"`
	AdminAddr      string   `toml:"admin_addr"`
	CorsOrigins    []string `toml:"cors_origins"`
	ReadTimeoutSec int      `toml:"read_timeout_sec"`
}

// ClientConfig describes one dialing bus peer.
type ClientConfig struct {
	Name               string `toml:"name"`
	SocketPath         string `toml:"socket_path"`
	SSHTunnel          string `toml:"ssh_tunnel"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
	ReadTimeoutSec     int    `toml:"read_timeout_sec"`
}

// ReadTimeout returns the per-transaction read timeout, defaulting to 30s.
func (c ServerConfig) ReadTimeout() time.Duration {
	if c.ReadTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// ReadTimeout returns the per-transaction read timeout, defaulting to 30s.
func (c ClientConfig) ReadTimeout() time.Duration {
	if c.ReadTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// LoadServerConfig reads and validates a server config from path.
func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "bus-server"
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig reads and validates a client config from path.
func LoadClientConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "bus-client"
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ValidateServerConfig checks the fields a server cannot start without.
func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.SocketPath) == "" {
		return fmt.Errorf("server config missing socket_path")
	}
	return nil
}

// ValidateClientConfig checks the fields a client cannot dial without.
func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.SocketPath) == "" {
		return fmt.Errorf("client config missing socket_path")
	}
	return nil
}
