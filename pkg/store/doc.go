// Package store is the relational backing store of the risk engine.
//
// It holds tenant-scoped model configuration (model versions, metrics,
// coefficients, rules, states, restructuring templates), transformation
// sessions, their versioned snapshots and the append-only audit log.
//
// Three database/sql drivers are supported through sqlx:
//
//   - "sqlite"   modernc.org/sqlite, pure Go (default)
//   - "sqlite3"  github.com/mattn/go-sqlite3, cgo
//   - "postgres" github.com/lib/pq
//
// Queries are written with '?' placeholders and rebound per driver.
//
// # Loading
//
// Load resolves the configuration of one model version into a
// model.ResolvedConfig. Inactive rows are returned with their flags so the
// scoring engine, not the query, decides what participates in a run.
//
// # Persisting
//
// Persist writes a run's snapshot and its audit entry in one transaction.
// The session's snapshot counter is incremented with
// UPDATE ... RETURNING inside that transaction, so concurrent runs of one
// session receive consecutive versions. Retryable driver errors (busy,
// locked, unique violation, serialization failure, deadlock) are retried
// with linear backoff up to Config.PersistMaxRetries.
//
// # Locking
//
// A model version referenced by a session is locked: structural changes to
// it fail with a *model.ConflictError. Activation flags can still be
// toggled. CloneModelVersion copies a locked version for further editing.
package store
