package telemetry

import (
	"fmt"

	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/telemetry/health"
	"strategos-hq/riskengine/pkg/telemetry/logging"
	"strategos-hq/riskengine/pkg/telemetry/metrics"
)

// Telemetry holds the process-wide logger, metrics collector and health checker.
type Telemetry struct {
	config  config.TelemetryConfig
	logger  *logging.Logger
	metrics *metrics.Collector
	health  *health.Checker
}

// New builds telemetry from the telemetry configuration section.
func New(cfg *config.TelemetryConfig) (*Telemetry, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Telemetry{
		config:  *cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Config returns the telemetry configuration the components were built from.
func (t *Telemetry) Config() config.TelemetryConfig { return t.config }

// Logger returns the structured logger.
func (t *Telemetry) Logger() *logging.Logger { return t.logger }

// Metrics returns the Prometheus collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// ApplyReload applies the parts of a reloaded configuration that can change
// at runtime. Only the log level is hot-reloadable; other telemetry changes
// need a restart.
func (t *Telemetry) ApplyReload(previous, current *config.Config) {
	if previous != nil && previous.Telemetry.Logging.Level == current.Telemetry.Logging.Level {
		return
	}
	if err := t.logger.SetLevel(current.Telemetry.Logging.Level); err != nil {
		t.logger.Error("failed to apply reloaded log level", "error", err)
		return
	}
	t.logger.Info("log level changed", "level", current.Telemetry.Logging.Level)
}
