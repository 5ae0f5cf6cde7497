package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riskengine.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
  read_timeout: "60s"

storage:
  driver: "sqlite3"
  dsn: "./test.db"
  persist_max_retries: 8

engine:
  parallelism: 2

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != "sqlite3" {
		t.Errorf("expected driver sqlite3, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.PersistMaxRetries != 8 {
		t.Errorf("expected 8 retries, got %d", cfg.Storage.PersistMaxRetries)
	}
	if cfg.Engine.Parallelism != 2 {
		t.Errorf("expected parallelism 2, got %d", cfg.Engine.Parallelism)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Unset fields fall back to defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Engine.ProgramCacheSize != DefaultEngineProgramCacheSize {
		t.Errorf("expected default cache size, got %d", cfg.Engine.ProgramCacheSize)
	}
	if !cfg.Storage.WALMode {
		t.Error("expected WAL mode to default to true")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to default to enabled")
	}
}

func TestLoadConfig_ExplicitFalseSurvives(t *testing.T) {
	path := writeConfig(t, `
storage:
  wal_mode: false
  auto_migrate: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.WALMode {
		t.Error("expected wal_mode false to be kept")
	}
	if cfg.Storage.AutoMigrate {
		t.Error("expected auto_migrate false to be kept")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics.enabled false to be kept")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: "oracle"
engine:
  parallelism: -1
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
storage:
  dsn: "file.db"
`)

	t.Setenv("RISKENGINE_SERVER_LISTEN_ADDRESS", "0.0.0.0:9191")
	t.Setenv("RISKENGINE_STORAGE_DSN", "env.db")
	t.Setenv("RISKENGINE_STORAGE_WAL_MODE", "false")
	t.Setenv("RISKENGINE_ENGINE_PARALLELISM", "16")
	t.Setenv("RISKENGINE_STORAGE_RETRY_BACKOFF", "5ms")
	t.Setenv("RISKENGINE_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("RISKENGINE_ENGINE_PROGRAM_CACHE_SIZE", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9191" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Storage.DSN != "env.db" {
		t.Errorf("expected env dsn, got %q", cfg.Storage.DSN)
	}
	if cfg.Storage.WALMode {
		t.Error("expected WAL mode disabled from env")
	}
	if cfg.Engine.Parallelism != 16 {
		t.Errorf("expected parallelism 16, got %d", cfg.Engine.Parallelism)
	}
	if cfg.Storage.RetryBackoff != 5*time.Millisecond {
		t.Errorf("expected 5ms backoff, got %v", cfg.Storage.RetryBackoff)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected warn level, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Engine.ProgramCacheSize != DefaultEngineProgramCacheSize {
		t.Errorf("unparseable override should be ignored, got %d", cfg.Engine.ProgramCacheSize)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("RISKENGINE_STORAGE_DRIVER", "postgres")
	t.Setenv("RISKENGINE_STORAGE_DSN", "postgres://localhost/riskengine?sslmode=disable")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("RISKENGINE_TELEMETRY_LOGGING_LEVEL", "verbose")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "RISKENGINE_DOTENV_TEST_VALUE=from-file\nRISKENGINE_DOTENV_TEST_PRESET=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("RISKENGINE_DOTENV_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("RISKENGINE_DOTENV_TEST_VALUE") })

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("RISKENGINE_DOTENV_TEST_VALUE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("RISKENGINE_DOTENV_TEST_PRESET"); got != "from-env" {
		t.Errorf("expected existing env to win, got %q", got)
	}
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("expected missing files to be skipped, got %v", err)
	}
}
