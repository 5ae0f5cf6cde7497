// Package metrics provides Prometheus metrics collection for the risk engine.
//
// # Metrics Categories
//
//   - Engine Metrics: runs by state, rejected runs, evaluation latency,
//     triggered rules per run, recovered evaluation errors
//   - Persist Metrics: snapshot and audit writes by outcome and latency
//   - Replay Metrics: replay outcomes and scheduled verification sweeps
//   - Request Metrics: API requests by route and status
//
// All metrics are registered on a dedicated registry owned by the
// Collector, prefixed with the configured namespace and subsystem
// (default "strategos_riskengine_").
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRun(&payload, elapsed)
//	router.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Error codes are reduced to their prefix and HTTP routes use the matched
// pattern. A CardinalityLimiter folds anything beyond the limit into the
// "other" label value.
package metrics
