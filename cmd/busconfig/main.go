// Command busconfig writes and validates TOML templates for busd and
// buscli.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/socketry/async-bus/internal/config"
)

func main() {
	kind := flag.String("kind", "server", "config kind: server|client")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind default path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		if err := validateConfig(*kind, path); err != nil {
			log.Fatal(err)
		}
		log.Printf("validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := writeTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "server":
		return "cmd/busd/config.toml"
	case "client":
		return "cmd/buscli/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

func validateConfig(kind, path string) error {
	switch kind {
	case "server":
		_, err := config.LoadServerConfig(path)
		return err
	case "client":
		_, err := config.LoadClientConfig(path)
		return err
	default:
		log.Fatalf("unknown kind: %s", kind)
		return nil
	}
}

func writeTemplate(target, kind string, force bool) error {
	if !force {
		if _, err := os.Stat(target); err == nil {
			log.Fatalf("%s already exists (use -force to overwrite)", target)
		}
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	switch kind {
	case "server":
		return enc.Encode(config.ServerConfig{
			Name:           "bus-server",
			SocketPath:     "/tmp/bus.ipc",
			AdminAddr:      ":9000",
			ReadTimeoutSec: 30,
		})
	case "client":
		return enc.Encode(config.ClientConfig{
			Name:               "bus-client",
			SocketPath:         "/tmp/bus.ipc",
			MaxConnectAttempts: 0,
			ReadTimeoutSec:     30,
		})
	default:
		log.Fatalf("unknown kind: %s", kind)
		return nil
	}
}
