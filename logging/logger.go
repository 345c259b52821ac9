// Package logging provides the zerolog configuration shared by every
// component, grounded on the teacher's logging/logger.go and the _logger
// construction embedded in peer/impl/mod.go's node.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Root is the package-level logger every component scopes off of.
var Root zerolog.Logger = zerolog.New(
	zerolog.NewConsoleWriter(
		func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr },
		func(w *zerolog.ConsoleWriter) { w.TimeFormat = "15:04:05.000" })).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

// Component returns Root scoped with a "component" field, the way the
// teacher scopes its per-node logger with a "Peer" field.
func Component(name string) zerolog.Logger {
	return Root.With().Str("component", name).Logger()
}
