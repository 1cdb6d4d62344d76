package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// captureLogger returns a logger writing JSON lines into buf.
func captureLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h)
}

func TestModuleAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo).Module("anchor")
	l.Info("payload encoded", "bytes", 28)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["module"] != "anchor" {
		t.Errorf("module = %v, want anchor", rec["module"])
	}
	if rec["msg"] != "payload encoded" {
		t.Errorf("msg = %v, want payload encoded", rec["msg"])
	}
	if rec["bytes"] != float64(28) {
		t.Errorf("bytes = %v, want 28", rec["bytes"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelWarn)
	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record emitted below level: %q", buf.String())
	}
	l.Error("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Error("error record missing")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestSetDefaultIgnoresNil(t *testing.T) {
	before := Default()
	SetDefault(nil)
	if Default() != before {
		t.Error("SetDefault(nil) replaced the default logger")
	}
}
