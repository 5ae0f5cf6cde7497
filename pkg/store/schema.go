package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 2

// schemaStatements create the schema. They are portable between SQLite and
// PostgreSQL: ids are TEXT uuids, timestamps are fixed-width UTC TEXT.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS model_versions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (tenant_id, name)
)`,
	// At most one active version per tenant.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_model_versions_active
    ON model_versions (tenant_id) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS metrics (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL,
    weight DOUBLE PRECISION,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL,
    UNIQUE (model_version_id, name)
)`,

	`CREATE TABLE IF NOT EXISTS coefficients (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL,
    mode TEXT NOT NULL,
    weight DOUBLE PRECISION NOT NULL DEFAULT 0,
    formula TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS rules (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS rule_conditions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    rule_id TEXT NOT NULL REFERENCES rules (id),
    expression TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS rule_impacts (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    rule_id TEXT NOT NULL REFERENCES rules (id),
    mode TEXT NOT NULL,
    value DOUBLE PRECISION NOT NULL DEFAULT 0,
    formula TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS state_definitions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    rank_order INTEGER NOT NULL,
    is_critical BOOLEAN NOT NULL DEFAULT FALSE,
    position INTEGER NOT NULL,
    UNIQUE (model_version_id, name)
)`,

	`CREATE TABLE IF NOT EXISTS state_thresholds (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    state_definition_id TEXT NOT NULL REFERENCES state_definitions (id),
    value DOUBLE PRECISION NOT NULL,
    comparator TEXT NOT NULL DEFAULT '>=' CHECK (comparator IN ('>=', '>')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS restructuring_templates (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    UNIQUE (model_version_id, name)
)`,

	`CREATE TABLE IF NOT EXISTS restructuring_rules (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    template_id TEXT NOT NULL REFERENCES restructuring_templates (id),
    state_definition_id TEXT REFERENCES state_definitions (id),
    position INTEGER NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS transformation_sessions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    model_version_id TEXT NOT NULL REFERENCES model_versions (id),
    name TEXT NOT NULL DEFAULT '',
    snapshot_version INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES transformation_sessions (id),
    version INTEGER NOT NULL,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (session_id, version)
)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    session_id TEXT,
    model_version_id TEXT NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    input TEXT NOT NULL,
    input_hash TEXT NOT NULL,
    payload TEXT NOT NULL,
    snapshot_version INTEGER,
    created_at TEXT NOT NULL
)`,

	`DROP INDEX IF EXISTS idx_metrics_version`,
	`DROP INDEX IF EXISTS idx_coefficients_version`,
	`DROP INDEX IF EXISTS idx_rules_version`,
	`DROP INDEX IF EXISTS idx_conditions_rule`,
	`DROP INDEX IF EXISTS idx_impacts_rule`,
	`DROP INDEX IF EXISTS idx_states_version`,
	`DROP INDEX IF EXISTS idx_thresholds_state`,
	`DROP INDEX IF EXISTS idx_restructuring_rules_version`,

	// Positions are allocated as MAX(position)+1 under the parent; a
	// concurrent allocation of the same slot fails instead of duplicating it.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_metrics_position ON metrics (model_version_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_coefficients_position ON coefficients (model_version_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_rules_position ON rules (model_version_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_rule_conditions_position ON rule_conditions (rule_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_rule_impacts_position ON rule_impacts (rule_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_state_definitions_position ON state_definitions (model_version_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_state_thresholds_position ON state_thresholds (state_definition_id, position)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_restructuring_rules_position ON restructuring_rules (model_version_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_tenant ON transformation_sessions (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant ON audit_logs (tenant_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_session ON audit_logs (session_id, created_at)`,
}
