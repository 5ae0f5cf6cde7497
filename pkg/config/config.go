package config

import "time"

// Config is the root configuration structure for the risk engine.
// It contains all configuration sections for the HTTP server, storage,
// evaluation engine, replay verification, telemetry and file watching.
type Config struct {
	// Server contains configuration for the HTTP API server including
	// listen address, timeouts and request header names.
	Server ServerConfig `yaml:"server"`

	// Storage contains configuration for the relational store that holds
	// model versions, sessions, snapshots and audit entries.
	Storage StorageConfig `yaml:"storage"`

	// Engine contains configuration for the scoring engine.
	Engine EngineConfig `yaml:"engine"`

	// Replay contains configuration for the scheduled replay verification sweep.
	Replay ReplayConfig `yaml:"replay"`

	// Telemetry contains configuration for logging, metrics and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch controls hot reloading of this configuration file.
	Watch WatchConfig `yaml:"watch"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address the API server binds to.
	// Format: "host:port" or ":port"
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is applied to every API request through the router middleware.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodyBytes limits the size of request bodies.
	// Default: 1048576 (1 MiB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TenantHeader is the request header that carries the tenant id.
	// Default: "X-Tenant-ID"
	TenantHeader string `yaml:"tenant_header"`

	// ActorHeader is the request header recorded as the audit actor.
	// Default: "X-Actor"
	ActorHeader string `yaml:"actor_header"`
}

// StorageConfig contains relational store configuration.
type StorageConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "postgres"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the database file path for the SQLite drivers or the
	// connection string for postgres.
	// Default: "data/riskengine.db"
	DSN string `yaml:"dsn"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging for the SQLite drivers.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// PersistMaxRetries bounds retries of a snapshot write that lost a
	// version race or hit a busy database.
	// Default: 5
	PersistMaxRetries int `yaml:"persist_max_retries"`

	// RetryBackoff is the base linear backoff between persist retries.
	// Default: 20ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// AutoMigrate applies the schema when the server starts.
	// Default: true
	AutoMigrate bool `yaml:"auto_migrate"`
}

// EngineConfig contains scoring engine configuration.
type EngineConfig struct {
	// Parallelism bounds the number of rules and coefficients evaluated
	// concurrently within one run. Recorded order never depends on it.
	// Default: 4
	Parallelism int `yaml:"parallelism"`

	// ProgramCacheSize is the number of compiled expressions kept in memory.
	// Default: 1024
	ProgramCacheSize int `yaml:"program_cache_size"`
}

// ReplayConfig contains replay verification configuration.
type ReplayConfig struct {
	// VerificationEnabled turns on the scheduled sweep that replays recent
	// audit entries and reports mismatches.
	// Default: false
	VerificationEnabled bool `yaml:"verification_enabled"`

	// VerificationSchedule is a cron expression (with optional seconds field).
	// Default: "0 */15 * * * *"
	VerificationSchedule string `yaml:"verification_schedule"`

	// VerificationWindow is how far back the sweep looks for audit entries.
	// Default: 1h
	VerificationWindow time.Duration `yaml:"verification_window"`

	// VerificationBatchSize caps the number of entries replayed per sweep.
	// Default: 100
	VerificationBatchSize int `yaml:"verification_batch_size"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "strategos"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "riskengine"
	Subsystem string `yaml:"subsystem"`

	// RunDurationBuckets defines histogram buckets for engine run and
	// persist durations (seconds).
	// Default: [0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0]
	RunDurationBuckets []float64 `yaml:"run_duration_buckets"`

	// RequestDurationBuckets defines histogram buckets for HTTP request duration (seconds).
	// Default: [0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// WatchConfig controls configuration hot reload.
type WatchConfig struct {
	// Enabled starts a file watcher on the configuration file.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period before a change triggers a reload.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}
