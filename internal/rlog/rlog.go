// Package rlog is a condensed version of the teacher's fluent
// core/log package: a Severity enum, a Logger carried on context.Context,
// and levelled helpers. It drops the teacher's note.Handler/jot plumbing
// (no multi-backend log routing is needed for a single daemon process)
// but keeps its severity vocabulary and the context-carried-logger idiom.
package rlog

import (
	"context"
	"fmt"
	"log"
	"os"
)

// Severity mirrors core/log's Severity levels (spec.md uses a distinct,
// smaller vocabulary for debug-message severities; see internal/query).
type Severity int32

const (
	Verbose Severity = iota
	Debug
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Verbose:
		return "V"
	case Debug:
		return "D"
	case Info:
		return "I"
	case Warning:
		return "W"
	case Error:
		return "E"
	case Fatal:
		return "F"
	default:
		return "?"
	}
}

// Logger writes levelled, tagged lines. Loggers are built with New; a nil
// *Logger discards everything.
type Logger struct {
	out   *log.Logger
	min   Severity
	tag   string
}

func New(tag string, min Severity) *Logger {
	return &Logger{out: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds), min: min, tag: tag}
}

func (l *Logger) log(s Severity, format string, args ...interface{}) {
	if l == nil || s < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.tag != "" {
		l.out.Printf("%s [%s] %s", s, l.tag, msg)
	} else {
		l.out.Printf("%s %s", s, msg)
	}
	if s == Fatal {
		os.Exit(1)
	}
}

type ctxKey struct{}

// Bind attaches a Logger to ctx for retrieval by From.
func Bind(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the Logger bound to ctx, or a default stderr logger at
// Info level if none was bound.
func From(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

var defaultLogger = New("", Info)

func V(ctx context.Context, format string, args ...interface{}) { From(ctx).log(Verbose, format, args...) }
func I(ctx context.Context, format string, args ...interface{}) { From(ctx).log(Info, format, args...) }
func W(ctx context.Context, format string, args ...interface{}) { From(ctx).log(Warning, format, args...) }
func E(ctx context.Context, format string, args ...interface{}) { From(ctx).log(Error, format, args...) }
func F(ctx context.Context, format string, args ...interface{}) { From(ctx).log(Fatal, format, args...) }
