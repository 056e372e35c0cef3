package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop()
	scoped := zap.NewExample()

	ctx := ContextWithLogger(context.Background(), scoped)
	if got := FromContext(ctx, fallback); got != scoped {
		t.Error("context logger not returned")
	}
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("fallback not returned for a bare context")
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		if _, err := NewLogger(env, ""); err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
		}
	}
	if _, err := NewLogger("local", "warn"); err != nil {
		t.Errorf("level override: %v", err)
	}
	if _, err := NewLogger("local", "loud"); err == nil {
		t.Error("invalid level should be rejected")
	}
}
