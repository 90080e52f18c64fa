// Package logging builds the zerolog logger each component uses.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-formatted logger writing to stdout, tagged with
// the given component name. It has no JSON output mode.
func New(component string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	return zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
}
