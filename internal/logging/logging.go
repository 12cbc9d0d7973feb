// Package logging provides a leveled wrapper around the standard
// library's log package: plain log.Printf-style calls gated by a
// verbosity level that's controlled by an environment variable, logging
// to stderr so stdout stays clean for the LSP wire protocol.
package logging

import (
	"log"
	"os"
	"strings"
)

// Level is a logging verbosity threshold.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	default:
		return "error"
	}
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Logger wraps *log.Logger with a level gate. The zero value is not
// usable; construct with New or FromEnv.
type Logger struct {
	level Level
	std   *log.Logger
}

// New constructs a Logger at level, writing to stderr with a timestamped
// prefix.
func New(level Level) *Logger {
	return &Logger{
		level: level,
		std:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// FromEnv constructs a Logger whose level is read from the PYFIXLS_LOG
// environment variable: one of debug, info, warn, error. Defaults to
// info when unset or unrecognized.
func FromEnv() *Logger {
	return New(parseLevel(os.Getenv("PYFIXLS_LOG")))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.logf(Debug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.logf(Info, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.logf(Warn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.logf(Error, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	l.std.Printf("["+level.String()+"] "+format, args...)
}
