package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/model"
)

// Outcome labels shared by the persist and replay metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeMatch    = "match"
	OutcomeMismatch = "mismatch"
)

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns every Prometheus metric of the risk engine. All Record*
// methods are no-ops when metrics are disabled, and a nil *Collector is
// safe to call.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	engineMetrics  *EngineMetrics
	replayMetrics  *ReplayMetrics
	requestMetrics *RequestMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering into registry. A nil
// registry gets a fresh one. Zero-valued naming and bucket fields are
// defaulted on a copy of cfg.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.RunDurationBuckets) == 0 {
		c.RunDurationBuckets = config.DefaultRunDurationBuckets
	}
	if len(c.RequestDurationBuckets) == 0 {
		c.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	return &Collector{
		config:             &c,
		registry:           registry,
		engineMetrics:      NewEngineMetrics(&c, registry),
		replayMetrics:      NewReplayMetrics(&c, registry),
		requestMetrics:     NewRequestMetrics(&c, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRun records a completed engine evaluation: its classified state,
// how many rules fired, its duration and every recovered item error.
func (c *Collector) RecordRun(payload *model.SnapshotPayload, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.engineMetrics.RecordRun(payload.State, payload.TriggeredRuleCount, duration)
	for _, e := range payload.Errors {
		code := errorCodeLabel(e.Code)
		if !c.cardinalityLimiter.Allow("evaluation_error:" + e.Source + ":" + code) {
			code = otherLabel
		}
		c.engineMetrics.RecordEvaluationError(e.Source, code)
	}
}

// RecordRunRejected records a run that failed before evaluation, labelled
// by the kind of configuration error.
func (c *Collector) RecordRunRejected(reason string) {
	if !c.enabled() {
		return
	}
	c.engineMetrics.RecordRejected(reason)
}

// RecordPersist records one Persist call and its outcome.
func (c *Collector) RecordPersist(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.engineMetrics.RecordPersist(outcome, duration)
}

// RecordReplay records one replay comparison. outcome is OutcomeMatch,
// OutcomeMismatch or OutcomeError.
func (c *Collector) RecordReplay(outcome string) {
	if !c.enabled() {
		return
	}
	c.replayMetrics.RecordReplay(outcome)
}

// RecordVerificationSweep records a scheduled verification pass.
func (c *Collector) RecordVerificationSweep(checked, mismatches int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.replayMetrics.RecordSweep(checked, mismatches, duration)
}

// RecordHTTPRequest records one served API request. route is the matched
// route pattern, never the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	if !c.cardinalityLimiter.Allow("http:" + method + ":" + route) {
		route = otherLabel
	}
	c.requestMetrics.RecordRequest(method, route, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// errorCodeLabel strips the variable or detail suffix from an evaluation
// error code ("missing_variable:profit" becomes "missing_variable").
func errorCodeLabel(code string) string {
	if i := strings.IndexByte(code, ':'); i >= 0 {
		return code[:i]
	}
	return code
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
