package rlog

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
)

func newBufferedLogger(min Severity) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{out: log.New(&buf, "", 0), min: min, tag: "test"}, &buf
}

func TestSeverityStringCovers6Levels(t *testing.T) {
	cases := map[Severity]string{
		Verbose: "V", Debug: "D", Info: "I", Warning: "W", Error: "E", Fatal: "F",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
	if got := Severity(99).String(); got != "?" {
		t.Errorf("unknown severity String() = %q, want ?", got)
	}
}

func TestLoggerFiltersBelowMinSeverity(t *testing.T) {
	l, buf := newBufferedLogger(Warning)
	l.log(Info, "should be dropped")
	if buf.Len() != 0 {
		t.Errorf("buf = %q, want empty (Info below Warning threshold)", buf.String())
	}
	l.log(Error, "should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("buf = %q, want it to contain the Error message", buf.String())
	}
}

func TestLoggerIncludesSeverityAndTag(t *testing.T) {
	l, buf := newBufferedLogger(Verbose)
	l.log(Info, "hello %s", "world")
	line := buf.String()
	if !strings.Contains(line, "I") || !strings.Contains(line, "[test]") || !strings.Contains(line, "hello world") {
		t.Errorf("line = %q, want severity, tag, and formatted message", line)
	}
}

func TestNilLoggerLogIsANoOp(t *testing.T) {
	var l *Logger
	l.log(Error, "must not panic") // should simply return
}

func TestBindAndFromRoundTrip(t *testing.T) {
	l, _ := newBufferedLogger(Info)
	ctx := Bind(context.Background(), l)
	if From(ctx) != l {
		t.Error("From(ctx) did not return the bound Logger")
	}
}

func TestFromReturnsDefaultWhenUnbound(t *testing.T) {
	if From(context.Background()) != defaultLogger {
		t.Error("From(ctx) with nothing bound should return defaultLogger")
	}
}

func TestHelperFunctionsRouteThroughBoundLogger(t *testing.T) {
	l, buf := newBufferedLogger(Verbose)
	ctx := Bind(context.Background(), l)

	I(ctx, "info line")
	W(ctx, "warn line")
	E(ctx, "error line")
	out := buf.String()
	for _, want := range []string{"info line", "warn line", "error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
