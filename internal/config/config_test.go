package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaultsName(t *testing.T) {
	path := writeTemp(t, `socket_path = "/tmp/bus.ipc"`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Name != "bus-server" {
		t.Fatalf("Name = %q, want bus-server", cfg.Name)
	}
	if cfg.SocketPath != "/tmp/bus.ipc" {
		t.Fatalf("SocketPath = %q", cfg.SocketPath)
	}
}

func TestLoadServerConfigMissingSocketPath(t *testing.T) {
	path := writeTemp(t, `name = "my-server"`)
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatal("expected an error for a config with no socket_path")
	}
}

func TestLoadClientConfigDefaultsName(t *testing.T) {
	path := writeTemp(t, `socket_path = "/tmp/bus.ipc"`)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.Name != "bus-client" {
		t.Fatalf("Name = %q, want bus-client", cfg.Name)
	}
}

func TestReadTimeoutDefaultsTo30Seconds(t *testing.T) {
	var sc ServerConfig
	if sc.ReadTimeout() != 30*time.Second {
		t.Fatalf("ReadTimeout() = %v, want 30s", sc.ReadTimeout())
	}
	cc := ClientConfig{ReadTimeoutSec: 5}
	if cc.ReadTimeout() != 5*time.Second {
		t.Fatalf("ReadTimeout() = %v, want 5s", cc.ReadTimeout())
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
