// Package logger configures the global zerolog logger for the CLI.
//
// Commands log through github.com/rs/zerolog/log; this package only controls
// the output format and the global level.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// SetVerbose switches the global level between info and debug.
func SetVerbose(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetWriter redirects log output, primarily for tests.
func SetWriter(w io.Writer) {
	log.Logger = log.Output(w)
}
