package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromEnv(t *testing.T) {
	cases := []struct {
		env  string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, c := range cases {
		t.Setenv("LOG_LEVEL", c.env)
		if got := levelFromEnv(); got != c.want {
			t.Errorf("LOG_LEVEL=%q -> %v, want %v", c.env, got, c.want)
		}
	}
}

func TestNew(t *testing.T) {
	log, err := New("test-service")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log == nil {
		t.Fatal("New returned nil logger")
	}
	log.Sync()
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Infof("discarded %d", 1)
}
