package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxBodyBytes    = int64(1048576) // 1MB
	DefaultTenantHeader    = "X-Tenant-ID"
	DefaultActorHeader     = "X-Actor"

	// Storage defaults
	DefaultStorageDriver            = "sqlite"
	DefaultStorageDSN               = "data/riskengine.db"
	DefaultStorageMaxOpenConns      = 10
	DefaultStorageMaxIdleConns      = 5
	DefaultStorageWALMode           = true
	DefaultStorageBusyTimeout       = 5 * time.Second
	DefaultStoragePersistMaxRetries = 5
	DefaultStorageRetryBackoff      = 20 * time.Millisecond
	DefaultStorageAutoMigrate       = true

	// Engine defaults
	DefaultEngineParallelism      = 4
	DefaultEngineProgramCacheSize = 1024

	// Replay defaults
	DefaultReplayVerificationEnabled   = false
	DefaultReplayVerificationSchedule  = "0 */15 * * * *"
	DefaultReplayVerificationWindow    = time.Hour
	DefaultReplayVerificationBatchSize = 100

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "strategos"
	DefaultMetricsSubsystem   = "riskengine"
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/health/ready"
	DefaultHealthCheckTimeout = 5 * time.Second

	// Watch defaults
	DefaultWatchEnabled  = false
	DefaultWatchDebounce = 250 * time.Millisecond
)

// DefaultRunDurationBuckets are the histogram buckets for engine runs and persists.
var DefaultRunDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}

// DefaultRequestDurationBuckets are the histogram buckets for HTTP requests.
var DefaultRequestDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0}

// Default returns a configuration with every field set to its default.
// Boolean defaults are only expressible here: LoadConfig decodes YAML on
// top of this value so an explicit false in the file survives.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.WALMode = DefaultStorageWALMode
	cfg.Storage.AutoMigrate = DefaultStorageAutoMigrate
	cfg.Replay.VerificationEnabled = DefaultReplayVerificationEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	cfg.Watch.Enabled = DefaultWatchEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any non-boolean fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TenantHeader == "" {
		cfg.Server.TenantHeader = DefaultTenantHeader
	}
	if cfg.Server.ActorHeader == "" {
		cfg.Server.ActorHeader = DefaultActorHeader
	}

	// Storage defaults
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = DefaultStorageDSN
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = DefaultStorageMaxIdleConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.PersistMaxRetries == 0 {
		cfg.Storage.PersistMaxRetries = DefaultStoragePersistMaxRetries
	}
	if cfg.Storage.RetryBackoff == 0 {
		cfg.Storage.RetryBackoff = DefaultStorageRetryBackoff
	}

	// Engine defaults
	if cfg.Engine.Parallelism == 0 {
		cfg.Engine.Parallelism = DefaultEngineParallelism
	}
	if cfg.Engine.ProgramCacheSize == 0 {
		cfg.Engine.ProgramCacheSize = DefaultEngineProgramCacheSize
	}

	// Replay defaults
	if cfg.Replay.VerificationSchedule == "" {
		cfg.Replay.VerificationSchedule = DefaultReplayVerificationSchedule
	}
	if cfg.Replay.VerificationWindow == 0 {
		cfg.Replay.VerificationWindow = DefaultReplayVerificationWindow
	}
	if cfg.Replay.VerificationBatchSize == 0 {
		cfg.Replay.VerificationBatchSize = DefaultReplayVerificationBatchSize
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RunDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RunDurationBuckets = append([]float64(nil), DefaultRunDurationBuckets...)
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}
