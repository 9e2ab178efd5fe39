// Command busd runs a demo bus server: a Counter object bound under the
// name "counter" on every accepted connection, plus an admin HTTP
// surface for health, metrics, and connection introspection.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	bus "github.com/socketry/async-bus"
	"github.com/socketry/async-bus/internal/admin"
	"github.com/socketry/async-bus/internal/config"
	"github.com/socketry/async-bus/internal/telemetry"
)

// Counter is the demo object bound on every accepted connection. It
// implements bus.Dispatchable directly so method dispatch does not fall
// back to reflection.
type Counter struct {
	mu    sync.Mutex
	value int64
}

func (c *Counter) Dispatch(ctx context.Context, method string, args []any, kwargs map[string]any, block bus.BlockCaller) (any, error) {
	switch method {
	case "increment":
		c.mu.Lock()
		c.value++
		v := c.value
		c.mu.Unlock()
		return v, nil
	case "count":
		c.mu.Lock()
		v := c.value
		c.mu.Unlock()
		return v, nil
	case "each_step", "count_up_to":
		if block == nil {
			return nil, nil
		}
		limit, _ := args[0].(int64)
		for i := int64(1); i <= limit; i++ {
			if _, err := block([]any{i}); err != nil {
				return nil, err
			}
		}
		return limit, nil
	default:
		return nil, &bus.NotFoundError{Name: method}
	}
}

func main() {
	configPath := flag.String("config", "cmd/busd/config.toml", "path to server config")
	flag.Parse()

	telemetry.Init("busd")

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("using default server config")
		cfg = config.ServerConfig{Name: "bus-server", SocketPath: "/tmp/bus.ipc", AdminAddr: ":9000"}
	}

	_ = os.Remove(cfg.SocketPath)
	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		log.Fatal().Err(err).Msg("listen failed")
	}

	opts := bus.DefaultOptions()
	opts.Timeout = cfg.ReadTimeout()
	server := bus.Serve(cfg.Name, listener, opts)

	if cfg.AdminAddr != "" {
		surface := admin.New(cfg.Name, server, cfg.CorsOrigins)
		go func() {
			if err := surface.Serve(cfg.AdminAddr); err != nil {
				log.Error().Err(err).Msg("admin surface stopped")
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("socket", cfg.SocketPath).Msg("bus server listening")
	err = server.Run(ctx, func(conn *bus.Connection) {
		conn.BindExplicit("counter", &Counter{})
	})
	if err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
