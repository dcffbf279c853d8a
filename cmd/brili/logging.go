package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// newLogger writes human-readable logs to w. Warnings and errors are always
// shown; --verbose adds pipeline stages and --trace adds one event per
// executed instruction.
func newLogger(w io.Writer, opts globalOptions) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case opts.trace:
		level = zerolog.TraceLevel
	case opts.verbose:
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isTerminal(w),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
