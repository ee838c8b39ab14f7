package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// setupLog configures the default logger: colored and leveled on a TTY,
// plain otherwise, debug level when asked for.
func setupLog() {
	log.SetOutput(os.Stderr)
	log.SetTimeFormat(time.Kitchen)
	log.SetReportTimestamp(false)

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetColorProfile(termenv.Ascii)
	}

	if viper.GetBool("debug") || os.Getenv("SUBVOX_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	}
}
