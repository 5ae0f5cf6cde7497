package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the relational store. It is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	config  *Config
	backend string
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the configured database. It does not create the schema;
// call Migrate for that.
func Open(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := slog.Default().With("component", "store")

	dsn, err := config.dataSourceName()
	if err != nil {
		return nil, NewStorageError(config.backend(), "open", err)
	}

	db, err := sqlx.Open(config.Driver, dsn)
	if err != nil {
		return nil, NewStorageError(config.backend(), "open", err)
	}

	maxOpen := config.MaxOpenConns
	if config.DSN == ":memory:" {
		// Every connection to :memory: is a separate database.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(config.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStorageError(config.backend(), "ping", err)
	}

	logger.Info("store opened",
		"driver", config.Driver,
		"wal_mode", config.WALMode && config.backend() == "sqlite",
		"max_open_conns", maxOpen,
	)

	return &Store{
		db:      db,
		config:  config,
		backend: config.backend(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Migrate creates the schema if it does not exist and verifies its version.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(s.backend, "create_schema", err)
		}
	}

	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM schema_version WHERE version = ?`), SchemaVersion); err != nil {
		return NewStorageError(s.backend, "get_schema_version", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`),
			SchemaVersion, formatTime(s.now())); err != nil {
			return NewStorageError(s.backend, "insert_schema_version", err)
		}
	}

	var version int
	if err := s.db.GetContext(ctx, &version, `SELECT MAX(version) FROM schema_version`); err != nil {
		return NewStorageError(s.backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(s.backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema ready", "version", version)
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(s.backend, "ping", err)
	}
	return nil
}

// Backend returns "sqlite" or "postgres".
func (s *Store) Backend() string {
	return s.backend
}

// Close closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// inTx runs fn in a transaction that is rolled back unless fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// readTx runs fn in a read-only transaction so every query sees the same
// snapshot. PostgreSQL needs repeatable read for that; a deferred SQLite
// transaction reads one WAL snapshot from its first statement.
func (s *Store) readTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	opts := &sql.TxOptions{ReadOnly: true}
	if s.backend == "postgres" {
		opts.Isolation = sql.LevelRepeatableRead
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
