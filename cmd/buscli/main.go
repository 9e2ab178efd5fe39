// Command buscli dials a bus server and repeatedly invokes the demo
// Counter object's increment method, printing each result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	bus "github.com/socketry/async-bus"
	"github.com/socketry/async-bus/internal/config"
	"github.com/socketry/async-bus/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "cmd/buscli/config.toml", "path to client config")
	steps := flag.Int("steps", 5, "number of increment calls to make")
	flag.Parse()

	telemetry.Init("buscli")

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("using default client config")
		cfg = config.ClientConfig{Name: "bus-client", SocketPath: "/tmp/bus.ipc"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := bus.DefaultOptions()
	opts.Timeout = cfg.ReadTimeout()

	dialer := bus.UnixDialer(cfg.SocketPath, 5*time.Second)
	conn, done, err := bus.Dial(ctx, cfg.Name, dialer, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "buscli: dial failed: %v\n", err)
		os.Exit(1)
	}

	counter := conn.GetProxy("counter")
	for i := 0; i < *steps; i++ {
		result, err := counter.Call("increment", nil, nil, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "buscli: increment failed: %v\n", err)
			break
		}
		fmt.Printf("counter = %v\n", result)
	}

	cancel()
	<-done
}
