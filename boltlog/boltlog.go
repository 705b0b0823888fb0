// Package boltlog is a leveled logging shim over the standard library's
// log.Logger, matching the teacher's own plain log.Printf usage rather
// than reaching for a structured logging library the pack never uses
// for its own code.
package boltlog

import (
	"io"
	"log"
	"os"
)

// Level is a logging severity, ordered from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelOff suppresses all output; used as the default so a driver
	// embedded in an application is silent unless asked otherwise.
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "OFF"
	}
}

// Logger wraps a stdlib *log.Logger with a minimum level filter.
type Logger struct {
	min  Level
	dest *log.Logger
}

// New returns a Logger writing to w at or above min. A nil w defaults to
// os.Stderr.
func New(w io.Writer, min Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{min: min, dest: log.New(w, "", log.LstdFlags)}
}

// Discard is a Logger that drops everything; the zero-value default for
// components that aren't given one explicitly.
var Discard = New(io.Discard, LevelOff)

func (l *Logger) log(level Level, pkg, step, format string, args ...any) {
	if l == nil || level < l.min {
		return
	}
	l.dest.Printf("["+level.String()+"] "+pkg+": "+step+": "+format, args...)
}

func (l *Logger) Debugf(pkg, step, format string, args ...any) { l.log(LevelDebug, pkg, step, format, args...) }
func (l *Logger) Infof(pkg, step, format string, args ...any)  { l.log(LevelInfo, pkg, step, format, args...) }
func (l *Logger) Warnf(pkg, step, format string, args ...any)  { l.log(LevelWarn, pkg, step, format, args...) }
func (l *Logger) Errorf(pkg, step, format string, args ...any) { l.log(LevelError, pkg, step, format, args...) }
