package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleParser parses replay.verification_schedule. The seconds field is
// optional so both "*/5 * * * *" and "0 */15 * * * *" are accepted.
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "storage.driver").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateReplay(&cfg.Replay)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must not be negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
		{"server.request_timeout", cfg.RequestTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}
	if strings.TrimSpace(cfg.TenantHeader) == "" {
		errs = append(errs, FieldError{
			Field:   "server.tenant_header",
			Message: "tenant header is required",
		})
	}
	if strings.TrimSpace(cfg.ActorHeader) == "" {
		errs = append(errs, FieldError{
			Field:   "server.actor_header",
			Message: "actor header is required",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3", "postgres":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite', 'sqlite3', or 'postgres'", cfg.Driver),
		})
	}

	if cfg.DSN == "" {
		errs = append(errs, FieldError{
			Field:   "storage.dsn",
			Message: "dsn is required",
		})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "storage.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.max_idle_conns",
			Message: "max idle connections must not be negative",
		})
	} else if cfg.MaxIdleConns > cfg.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "storage.max_idle_conns",
			Message: "max idle connections must not exceed max open connections",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}
	if cfg.PersistMaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.persist_max_retries",
			Message: "persist max retries must not be negative",
		})
	}
	if cfg.RetryBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retry_backoff",
			Message: "retry backoff must not be negative",
		})
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.Parallelism < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.parallelism",
			Message: "parallelism must be at least 1",
		})
	}
	if cfg.ProgramCacheSize < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.program_cache_size",
			Message: "program cache size must be at least 1",
		})
	}

	return errs
}

func validateReplay(cfg *ReplayConfig) []FieldError {
	var errs []FieldError

	if cfg.VerificationEnabled {
		if _, err := ScheduleParser.Parse(cfg.VerificationSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "replay.verification_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.VerificationSchedule, err),
			})
		}
	}
	if cfg.VerificationWindow <= 0 {
		errs = append(errs, FieldError{
			Field:   "replay.verification_window",
			Message: "verification window must be positive",
		})
	}
	if cfg.VerificationBatchSize < 1 {
		errs = append(errs, FieldError{
			Field:   "replay.verification_batch_size",
			Message: "verification batch size must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		errs = append(errs, validateBuckets("telemetry.metrics.run_duration_buckets", cfg.Metrics.RunDurationBuckets)...)
		errs = append(errs, validateBuckets("telemetry.metrics.request_duration_buckets", cfg.Metrics.RequestDurationBuckets)...)
	}

	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" || cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if cfg.Health.ReadinessPath == "" || cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}
		if cfg.Health.LivenessPath != "" && cfg.Health.LivenessPath == cfg.Health.ReadinessPath {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must differ from liveness path",
			})
		}
		if cfg.Health.CheckTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
	}

	return errs
}

// validateBuckets checks histogram buckets are positive and strictly increasing.
func validateBuckets(field string, buckets []float64) []FieldError {
	for i, b := range buckets {
		if b <= 0 {
			return []FieldError{{Field: field, Message: "buckets must be positive"}}
		}
		if i > 0 && b <= buckets[i-1] {
			return []FieldError{{Field: field, Message: "buckets must be strictly increasing"}}
		}
	}
	return nil
}
