// Package pipeline runs the transformation risk engine end to end.
//
// A run resolves the model version (explicit id, then the session's pinned
// version, then the tenant's active version), loads its configuration,
// scores the input, classifies the total score, selects restructuring
// directives and persists the snapshot and audit entry in one transaction.
//
// Evaluator holds the pure part of the path and is shared with the replay
// engine so that a replay recomputes exactly what a run computed.
package pipeline
