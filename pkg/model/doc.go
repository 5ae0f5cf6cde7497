// Package model defines the typed configuration, run output and audit records
// shared by the loader, the scoring pipeline, persistence and replay.
//
// Configuration rows (ModelVersion, Metric, Coefficient, Rule, RuleCondition,
// RuleImpact, StateDefinition, StateThreshold, RestructuringTemplate,
// RestructuringRule) are plain values. A ResolvedConfig bundles all of them
// for one model version and is treated as immutable once loaded.
//
// SnapshotPayload is the canonical engine output. Its JSON encoding is what
// gets stored on snapshots and audit entries and what replay re-encodes for
// byte comparison, so field order and types here are part of the record format.
package model
