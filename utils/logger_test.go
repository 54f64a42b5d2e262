package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut)
	l.SetLevel(LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	if strings.Contains(out.String(), "debug 1") || strings.Contains(out.String(), "info 2") {
		t.Errorf("messages below warn were written: %q", out.String())
	}
	if !strings.Contains(out.String(), "warn 3") {
		t.Errorf("warn message missing: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "error 4") {
		t.Errorf("error message missing: %q", errOut.String())
	}
}
