package main

import (
	"io"
	"log/slog"
	"os"
)

// appName tags every record so the bot's lines can be told apart when its
// output is merged with other logs.
const appName = "flame-bot"

// NewLogger returns a structured slog.Logger with the given level on stdout.
func NewLogger(level slog.Leveler) *slog.Logger {
	return newLogger(os.Stdout, level)
}

// newLogger writes JSON records to w. Debug level adds the source location.
func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level.Level() <= slog.LevelDebug,
	})
	return slog.New(h).With("app", appName)
}
