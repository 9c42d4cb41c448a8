package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("default logger should not be enabled at any level")
	}
}

func TestForAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	For("ddgi").Info("volume initialized", "probes", 8)

	out := buf.String()
	if !strings.Contains(out, "component=ddgi") {
		t.Errorf("output %q missing component attribute", out)
	}
	if !strings.Contains(out, "probes=8") {
		t.Errorf("output %q missing probes attribute", out)
	}
}
