package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/model"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		Subsystem:              "engine",
		RunDurationBuckets:     []float64{0.001, 0.01, 0.1},
		RequestDurationBuckets: []float64{0.01, 0.1, 1.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	if collector.Registry() != registry {
		t.Error("collector registry not set correctly")
	}
	if collector.config.Namespace != "test" {
		t.Errorf("expected namespace test, got %q", collector.config.Namespace)
	}
}

func TestCollector_DefaultsOnCopy(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != "" {
		t.Error("NewCollector mutated the caller's config")
	}
	if collector.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", collector.config.Namespace)
	}
	if collector.Registry() == nil {
		t.Error("expected a fresh registry")
	}
}

func TestCollector_RecordRun(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	payload := &model.SnapshotPayload{
		State:              "CRITICAL_ZONE",
		TriggeredRuleCount: 3,
		Errors: []model.EvaluationError{
			{Source: "condition", ID: "c1", Code: "missing_variable:profit"},
			{Source: "condition", ID: "c2", Code: "missing_variable:ebitda"},
			{Source: "coefficient", ID: "k1", Code: "division_by_zero"},
		},
	}
	collector.RecordRun(payload, 3*time.Millisecond)
	collector.RecordRun(&model.SnapshotPayload{State: "NORMAL"}, time.Millisecond)

	em := collector.engineMetrics
	if got := testutil.ToFloat64(em.runsTotal.WithLabelValues("CRITICAL_ZONE")); got != 1 {
		t.Errorf("expected 1 critical run, got %v", got)
	}
	if got := testutil.ToFloat64(em.runsTotal.WithLabelValues("NORMAL")); got != 1 {
		t.Errorf("expected 1 normal run, got %v", got)
	}
	if got := testutil.ToFloat64(em.evaluationErrors.WithLabelValues("condition", "missing_variable")); got != 2 {
		t.Errorf("expected 2 missing_variable errors, got %v", got)
	}
	if got := testutil.ToFloat64(em.evaluationErrors.WithLabelValues("coefficient", "division_by_zero")); got != 1 {
		t.Errorf("expected 1 division_by_zero error, got %v", got)
	}
	if got := testutil.CollectAndCount(em.runDuration); got != 1 {
		t.Errorf("expected run duration histogram, got %d series", got)
	}
}

func TestCollector_RecordPersistAndReplay(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordPersist(OutcomeSuccess, 2*time.Millisecond)
	collector.RecordPersist(OutcomeSuccess, 2*time.Millisecond)
	collector.RecordPersist(OutcomeError, 9*time.Millisecond)
	collector.RecordRunRejected("no_active_model")
	collector.RecordReplay(OutcomeMatch)
	collector.RecordReplay(OutcomeMismatch)
	collector.RecordVerificationSweep(40, 1, time.Second)

	if got := testutil.ToFloat64(collector.engineMetrics.persistTotal.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("expected 2 successful persists, got %v", got)
	}
	if got := testutil.ToFloat64(collector.engineMetrics.runsRejected.WithLabelValues("no_active_model")); got != 1 {
		t.Errorf("expected 1 rejected run, got %v", got)
	}
	if got := testutil.ToFloat64(collector.replayMetrics.replaysTotal.WithLabelValues(OutcomeMismatch)); got != 1 {
		t.Errorf("expected 1 mismatch, got %v", got)
	}
	if got := testutil.ToFloat64(collector.replayMetrics.lastSweepChecked); got != 40 {
		t.Errorf("expected 40 checked, got %v", got)
	}
	if got := testutil.ToFloat64(collector.replayMetrics.sweepsTotal); got != 1 {
		t.Errorf("expected 1 sweep, got %v", got)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("POST", "/api/v1/engine/run", 200, 5*time.Millisecond)
	collector.RecordHTTPRequest("GET", "", 404, time.Millisecond)

	rm := collector.requestMetrics
	if got := testutil.ToFloat64(rm.requestsTotal.WithLabelValues("POST", "/api/v1/engine/run", "200")); got != 1 {
		t.Errorf("expected 1 run request, got %v", got)
	}
	if got := testutil.ToFloat64(rm.requestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected unmatched route label, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordRun(&model.SnapshotPayload{State: "NORMAL"}, time.Millisecond)
	collector.RecordPersist(OutcomeSuccess, time.Millisecond)

	if got := testutil.ToFloat64(collector.engineMetrics.persistTotal.WithLabelValues(OutcomeSuccess)); got != 0 {
		t.Errorf("disabled collector recorded persist: %v", got)
	}
	if got := testutil.CollectAndCount(collector.engineMetrics.runsTotal); got != 0 {
		t.Errorf("disabled collector recorded runs: %d", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector
	collector.RecordRun(&model.SnapshotPayload{}, time.Millisecond)
	collector.RecordPersist(OutcomeError, time.Millisecond)
	collector.RecordReplay(OutcomeMatch)
	collector.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("a") || !cl.Allow("b") {
		t.Fatal("expected first two label sets to be allowed")
	}
	if cl.Allow("c") {
		t.Error("expected third label set to be rejected")
	}
	if !cl.Allow("a") {
		t.Error("expected known label set to stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("expected count 2, got %d", cl.Count())
	}
}

func TestErrorCodeLabel(t *testing.T) {
	tests := map[string]string{
		"missing_variable:profit": "missing_variable",
		"division_by_zero":        "division_by_zero",
		"":                        "",
	}
	for in, want := range tests {
		if got := errorCodeLabel(in); got != want {
			t.Errorf("errorCodeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordRun(&model.SnapshotPayload{State: "ELEVATED_RISK"}, time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_engine_runs_total{state="ELEVATED_RISK"} 1`) {
		t.Errorf("runs_total not exposed:\n%s", rec.Body.String())
	}
}
