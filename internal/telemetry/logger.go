// Package telemetry wires up structured logging for the bus using
// zerolog throughout (see DESIGN.md for why the vendored logging
// backend referenced elsewhere in this codebase's history never applies
// here: its module has no source behind it).
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger for a component named app
// (e.g. "bus.server", "bus.client") and returns it for callers that want
// a scoped handle rather than the package-global one.
func Init(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
