// Package logger builds the phuslu/log logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// New returns a logger at the given level ("debug", "info", "warn", "error").
// Format "json" writes JSON lines to stderr; anything else writes
// human-readable console lines.
func New(level, format string) *log.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(level, format string, out io.Writer) *log.Logger {
	l := &log.Logger{
		Level:      ParseLevel(level),
		Caller:     1,
		TimeFormat: "2006-01-02 15:04:05",
	}
	if strings.EqualFold(format, "json") {
		l.Writer = &log.IOWriter{Writer: out}
	} else {
		l.Writer = &log.ConsoleWriter{Writer: out, EndWithMessage: true}
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(level string) log.Level {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel
	}
	return log.ParseLevel(strings.ToLower(level))
}
