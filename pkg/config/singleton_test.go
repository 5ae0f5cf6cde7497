package config

import (
	"os"
	"sync"
	"testing"
)

func resetForTest(t *testing.T) {
	t.Helper()
	reset := func() {
		configMutex.Lock()
		globalConfig = nil
		globalPath = ""
		initOnce = sync.Once{}
		configMutex.Unlock()

		subscribersMu.Lock()
		subscribers = nil
		subscribersMu.Unlock()
	}
	reset()
	t.Cleanup(reset)
}

func TestInitialize_OnlyOnce(t *testing.T) {
	resetForTest(t)

	first := writeConfig(t, "engine:\n  parallelism: 3\n")
	second := writeConfig(t, "engine:\n  parallelism: 9\n")

	if err := Initialize(first); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := Initialize(second); err != nil {
		t.Fatalf("second Initialize returned error: %v", err)
	}

	if got := MustGetConfig().Engine.Parallelism; got != 3 {
		t.Errorf("expected first configuration to stick, got parallelism %d", got)
	}
}

func TestGetConfig_NilBeforeInitialize(t *testing.T) {
	resetForTest(t)

	if GetConfig() != nil {
		t.Error("expected nil configuration before Initialize")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustGetConfig to panic")
		}
	}()
	MustGetConfig()
}

func TestReloadConfig_NotifiesSubscribers(t *testing.T) {
	resetForTest(t)

	path := writeConfig(t, "telemetry:\n  logging:\n    level: info\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var previous, current *Config
	Subscribe(func(p, c *Config) {
		previous, current = p, c
	})

	if err := os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: debug\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := ReloadConfig(""); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}

	if previous == nil || previous.Telemetry.Logging.Level != "info" {
		t.Errorf("expected previous level info, got %+v", previous)
	}
	if current == nil || current.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected current level debug, got %+v", current)
	}
	if GetConfig() != current {
		t.Error("expected global configuration to be replaced")
	}
}

func TestReloadConfig_FailureKeepsPrevious(t *testing.T) {
	resetForTest(t)

	path := writeConfig(t, "engine:\n  parallelism: 2\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	before := GetConfig()

	called := false
	Subscribe(func(_, _ *Config) { called = true })

	if err := os.WriteFile(path, []byte("engine:\n  parallelism: -4\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error")
	}

	if GetConfig() != before {
		t.Error("failed reload replaced the configuration")
	}
	if called {
		t.Error("subscriber called for failed reload")
	}
}

func TestSetConfig(t *testing.T) {
	resetForTest(t)

	cfg := Default()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("SetConfig did not replace the configuration")
	}
}
