package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{" INFO ", zapcore.InfoLevel, true},
		{"warning", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"loud", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseLevel(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core)).With(String("component", "feed"))

	log.Debug("hidden")
	log.Info("published", Int("n", 2), Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "feed" {
		t.Errorf("component = %v, want feed", ctx["component"])
	}
	if ctx["n"] != int64(2) {
		t.Errorf("n = %v, want 2", ctx["n"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error = %v, want boom", ctx["error"])
	}
}

func TestSugaredLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Warnf("retry %d of %d", 2, 5)

	if got := logs.FilterMessage("retry 2 of 5").Len(); got != 1 {
		t.Errorf("found %d sugared entries, want 1", got)
	}
}
