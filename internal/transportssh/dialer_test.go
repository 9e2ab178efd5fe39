package transportssh

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAddressDefaultsPort22(t *testing.T) {
	d := New(Config{Host: "example.com"})
	addr, err := d.address()
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if addr != "example.com:22" {
		t.Fatalf("address = %q, want example.com:22", addr)
	}
}

func TestAddressHonorsExplicitPort(t *testing.T) {
	d := New(Config{Host: "example.com", Port: "2222"})
	addr, err := d.address()
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if addr != "example.com:2222" {
		t.Fatalf("address = %q, want example.com:2222", addr)
	}
}

func TestAddressHostAlreadyHasPort(t *testing.T) {
	d := New(Config{Host: "example.com:2200"})
	addr, err := d.address()
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if addr != "example.com:2200" {
		t.Fatalf("address = %q, want example.com:2200", addr)
	}
}

func TestAddressRequiresHost(t *testing.T) {
	d := New(Config{})
	if _, err := d.address(); err == nil {
		t.Fatal("expected an error for a missing host")
	}
}

func TestClientConfigRequiresUser(t *testing.T) {
	d := New(Config{Host: "example.com", KeyPath: "irrelevant"})
	if _, err := d.clientConfig(); err == nil {
		t.Fatal("expected an error for a missing user")
	}
}

func TestSignerRequiresKeyPath(t *testing.T) {
	d := New(Config{Host: "example.com", User: "bus"})
	if _, err := d.signer(); err == nil {
		t.Fatal("expected an error for a missing key path")
	}
}

func TestDialRequiresRemoteSocketPath(t *testing.T) {
	// dialSSH would fail first against a real host, but exercising the
	// required-field checks directly keeps this test free of network
	// access. RemoteSocketPath's check happens after a successful SSH
	// dial, so it's covered by the higher-level connection tests instead;
	// here we confirm the signer/host checks run before any dial attempt.
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, []byte("not a real key"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d := New(Config{Host: "example.com", User: "bus", KeyPath: keyPath, Timeout: time.Millisecond})
	if _, err := d.signer(); err == nil {
		t.Fatal("expected an error parsing a bogus private key")
	}
}
