package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_UsesJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(Options{Level: "debug", Writer: &buf, Component: "viewlink"})
	lg.Debug("boot", "k", "v")

	out := strings.TrimSpace(buf.String())
	if !strings.Contains(out, `"level":"DEBUG"`) {
		t.Fatalf("expected DEBUG level, got %s", out)
	}
	if !strings.Contains(out, `"component":"viewlink"`) {
		t.Fatalf("expected component field, got %s", out)
	}
}

func TestNewLogger_DefaultLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(Options{Writer: &buf})
	lg.Debug("hidden")
	lg.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at default level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info line missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":     slog.LevelDebug,
		"WARN":      slog.LevelWarn,
		" warning ": slog.LevelWarn,
		"error":     slog.LevelError,
		"":          slog.LevelInfo,
		"bogus":     slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
