package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(buf))), buf
}

func TestLevelGate(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestJSONFormatterFields(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &JSONFormatter{})
	l.With(Component("writer")).Info("page created", Int("page", 3), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if m["msg"] != "page created" {
		t.Fatalf("msg: %v", m["msg"])
	}
	if m["component"] != "writer" {
		t.Fatalf("component: %v", m["component"])
	}
	if m["error"] != "boom" {
		t.Fatalf("error: %v", m["error"])
	}
	if m["level"] != "INFO" {
		t.Fatalf("level: %v", m["level"])
	}
}

func TestSetLevelSharedWithChildren(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	child := l.WithComponent("store")
	l.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("child should observe parent level, got %q", buf.String())
	}
}

func TestRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(buf)), WithRedaction("token"))
	l.Info("auth", Str("token", "secret"))
	if strings.Contains(buf.String(), "secret") {
		t.Fatalf("token leaked: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("missing redaction marker: %q", buf.String())
	}
}

func TestSampling(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithFormatter(&TextFormatter{}), WithOutput(NewWriterOutput(buf)), WithSampling(1, 3))
	for i := 0; i < 7; i++ {
		l.Info("tick")
	}
	// kept: #0 (initial), then #1, #4 of the remainder
	if got := strings.Count(buf.String(), "tick"); got != 3 {
		t.Fatalf("want 3 sampled lines, got %d", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want err %v", err, tt.err)
			}
			if got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := ApplyConfig(&Config{Level: "error", Format: "json", Output: "null"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestCallerPointsAtCallSite(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithFormatter(&TextFormatter{ShowCaller: true}), WithOutput(NewWriterOutput(buf)))
	l.With(Str("k", "v")).Warnf("n=%d", 1)
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("caller should be the test file: %q", buf.String())
	}
}

func TestToStdLoggerLevels(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			l, buf := newBufferLogger(DebugLevel, &TextFormatter{})
			ToStdLogger(l, tc.level).Printf("accept error: %s\n", "closed")
			out := buf.String()
			if !strings.Contains(out, tc.want+" ") || !strings.Contains(out, "accept error: closed source=stdlog\n") {
				t.Fatalf("unexpected line %q", out)
			}
		})
	}
}
