package bus

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/socketry/async-bus/internal/backoff"
)

// Dialer abstracts the transport a client connects over: a plain
// net.Dialer for a local domain socket, or an SSH-tunneled dialer for a
// remote one.
type Dialer interface {
	Dial() (net.Conn, error)
}

type netDialer struct {
	network, address string
	timeout          time.Duration
}

func (d netDialer) Dial() (net.Conn, error) {
	return net.DialTimeout(d.network, d.address, d.timeout)
}

// UnixDialer returns a Dialer that connects to a local domain socket at
// path.
func UnixDialer(path string, timeout time.Duration) Dialer {
	return netDialer{network: "unix", address: path, timeout: timeout}
}

// Dial opens one connection through d, constructs a Connection, starts
// its dispatch loop in the background, and invokes onConnected. It
// returns once the connection is established; callers that want it run
// to completion can wait on the returned channel, or use Run for
// supervised reconnection instead.
func Dial(ctx context.Context, name string, d Dialer, opts Options) (*Connection, <-chan error, error) {
	opts.IsClient = true
	raw, err := d.Dial()
	if err != nil {
		return nil, nil, err
	}
	conn := newConnection(name, raw, opts)
	done := make(chan error, 1)
	go func() {
		done <- conn.Run(ctx, nil)
	}()
	return conn, done, nil
}

// RunConfig configures the supervised reconnection loop.
type RunConfig struct {
	Backoff            backoff.Config
	MaxConnectAttempts int
}

// DefaultRunConfig returns the reconnect backoff a client uses when none
// is supplied explicitly.
func DefaultRunConfig() RunConfig {
	return RunConfig{Backoff: backoff.DefaultConfig()}
}

// Run dials d repeatedly with randomized backoff, re-invoking onConnected
// on every successful (re)connect, until ctx is cancelled. It returns the
// error from the final failed dial attempt if ctx is cancelled mid-backoff,
// or nil if ctx is cancelled while a connection is live.
func Run(ctx context.Context, name string, d Dialer, opts Options, cfg RunConfig, onConnected OnConnected) error {
	opts.IsClient = true
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		attempt++
		raw, err := d.Dial()
		if err != nil {
			log.Warn().Str("client", name).Int("attempt", attempt).Err(err).Msg("bus dial failed")
			if cfg.MaxConnectAttempts > 0 && attempt >= cfg.MaxConnectAttempts {
				return err
			}
			if err := sleepBackoff(ctx, cfg.Backoff, attempt, rng); err != nil {
				return nil
			}
			continue
		}

		attempt = 0
		conn := newConnection(name, raw, opts)
		if err := conn.Run(ctx, onConnected); err != nil {
			log.Warn().Str("client", name).Err(err).Msg("bus connection lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := sleepBackoff(ctx, cfg.Backoff, 1, rng); err != nil {
			return nil
		}
	}
}

func sleepBackoff(ctx context.Context, cfg backoff.Config, attempt int, rng *rand.Rand) error {
	delay := backoff.Next(cfg, attempt, rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
