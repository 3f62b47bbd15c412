package internal

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"", "local", "dev", "test", "prod"} {
		l, err := NewLogger(env, "")
		if err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
			continue
		}
		_ = l.Sync()
	}

	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("expected error for unknown environment")
	}
	if _, err := NewLogger("local", "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	l, err := NewLogger("local", "error")
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be disabled at level error")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at level error")
	}
}

func TestLoggerContext(t *testing.T) {
	if LoggerFromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger")
	}

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	if LoggerFromContext(ctx) != l {
		t.Error("expected the stored logger")
	}
}
