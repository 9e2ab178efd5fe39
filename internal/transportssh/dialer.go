// Package transportssh tunnels a bus connection's stream socket over SSH,
// for a client and server that sit on different hosts but still want to
// talk the bus protocol over what looks, to both sides' Connection, like
// a plain stream socket.
package transportssh

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config describes one SSH hop used to reach a remote bus socket.
type Config struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration

	// RemoteSocketPath is the unix domain socket path on Host that the
	// remote bus server is listening on.
	RemoteSocketPath string
}

// Dialer opens a net.Conn to a remote bus socket by tunneling through an
// SSH connection and asking the remote sshd to forward to a unix socket.
type Dialer struct {
	cfg Config
}

// New builds a Dialer for cfg.
func New(cfg Config) *Dialer {
	return &Dialer{cfg: cfg}
}

// Dial opens the SSH connection, then asks the remote side to forward a
// unix-domain channel to RemoteSocketPath, returning a net.Conn usable
// directly as a bus transport.
func (d *Dialer) Dial() (net.Conn, error) {
	client, err := d.dialSSH()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(d.cfg.RemoteSocketPath) == "" {
		client.Close()
		return nil, fmt.Errorf("transportssh: remote socket path is required")
	}

	conn, err := client.Dial("unix", d.cfg.RemoteSocketPath)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &tunnelConn{Conn: conn, client: client}, nil
}

// tunnelConn closes the backing SSH client once the forwarded channel is
// closed, so a Dialer never leaks an SSH connection per tunneled socket.
type tunnelConn struct {
	net.Conn
	client *ssh.Client
}

func (t *tunnelConn) Close() error {
	err := t.Conn.Close()
	_ = t.client.Close()
	return err
}

func (d *Dialer) dialSSH() (*ssh.Client, error) {
	address, err := d.address()
	if err != nil {
		return nil, err
	}
	config, err := d.clientConfig()
	if err != nil {
		return nil, err
	}

	if d.cfg.Timeout <= 0 {
		return ssh.Dial("tcp", address, config)
	}

	conn, err := net.DialTimeout("tcp", address, d.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (d *Dialer) address() (string, error) {
	host := strings.TrimSpace(d.cfg.Host)
	if host == "" {
		return "", fmt.Errorf("transportssh: host is required")
	}
	if d.cfg.Port != "" {
		return net.JoinHostPort(host, d.cfg.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, "22"), nil
}

func (d *Dialer) clientConfig() (*ssh.ClientConfig, error) {
	if d.cfg.User == "" {
		return nil, fmt.Errorf("transportssh: user is required")
	}
	signer, err := d.signer()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if d.cfg.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := d.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.cfg.Timeout,
	}, nil
}

func (d *Dialer) signer() (ssh.Signer, error) {
	if d.cfg.KeyPath == "" {
		return nil, fmt.Errorf("transportssh: key path is required")
	}
	privateKey, err := os.ReadFile(d.cfg.KeyPath)
	if err != nil {
		return nil, err
	}
	if len(d.cfg.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, d.cfg.Passphrase)
	}
	return ssh.ParsePrivateKey(privateKey)
}

func (d *Dialer) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(d.cfg.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("transportssh: known hosts path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}
