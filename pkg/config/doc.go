// Package config provides configuration management for the risk engine.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("riskengine.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("riskengine.yaml")
//
// LoadDotEnv may be called first to populate the environment from a
// .env file. Variables already present in the environment win.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RISKENGINE_SECTION_FIELD:
//
//   - RISKENGINE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - RISKENGINE_STORAGE_DSN overrides storage.dsn
//   - RISKENGINE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the configuration file and calls ReloadConfig after a
// debounce interval. Subscribers registered with Subscribe receive the
// previous and new configuration; a failed reload keeps the old one.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//	  request_timeout: 60s
//	storage:
//	  driver: sqlite
//	  dsn: data/riskengine.db
//	  persist_max_retries: 5
//	engine:
//	  parallelism: 4
//	replay:
//	  verification_enabled: true
//	  verification_schedule: "0 */15 * * * *"
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	watch:
//	  enabled: true
package config
