// Package replay re-executes audited engine runs and checks that they
// reproduce.
//
// A replay loads the audit entry, loads the model version it recorded and
// runs the same evaluation path as the pipeline on the stored input. The
// stored and replayed snapshots are compared on state, total score, rule
// triggers and coefficient contributions; differences are reported as
// Mismatch values and never corrected.
//
// Verifier sweeps recent audit entries and Scheduler runs it on a cron
// schedule so divergence (for example after an activity toggle on a locked
// model version) shows up in logs and metrics.
package replay
