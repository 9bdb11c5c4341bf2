package rexx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// defaultLogger logs engine internals when REXX_DEBUG is set: "stdout" or
// "stderr" select the sink, "trace" also logs every executed statement.
func defaultLogger() zerolog.Logger {
	out := os.Getenv("REXX_DEBUG")
	if out == "" {
		return zerolog.Nop()
	}
	var w io.Writer = os.Stderr
	if strings.Contains(out, "stdout") {
		w = os.Stdout
	}
	level := zerolog.DebugLevel
	if strings.Contains(out, "trace") {
		level = zerolog.TraceLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Str("component", "rexx").Logger()
}
