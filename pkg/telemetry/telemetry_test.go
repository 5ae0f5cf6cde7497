package telemetry

import (
	"log/slog"
	"testing"

	"strategos-hq/riskengine/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.Default()

	tel, err := New(&cfg.Telemetry)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if tel.Logger() == nil || tel.Metrics() == nil || tel.Health() == nil {
		t.Fatal("expected all components to be initialized")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Logging.Level = "chatty"

	if _, err := New(&cfg.Telemetry); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestApplyReload(t *testing.T) {
	previous := config.Default()
	tel, err := New(&previous.Telemetry)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	current := config.Default()
	current.Telemetry.Logging.Level = "debug"
	tel.ApplyReload(previous, current)

	if tel.Logger().Level() != slog.LevelDebug {
		t.Errorf("expected debug after reload, got %v", tel.Logger().Level())
	}

	// Unchanged level is a no-op.
	tel.ApplyReload(current, current)
	if tel.Logger().Level() != slog.LevelDebug {
		t.Errorf("expected level to stay debug, got %v", tel.Logger().Level())
	}
}
