package store

import (
	"fmt"
	"time"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"   // modernc.org/sqlite
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3
	DriverPostgres = "postgres" // github.com/lib/pq
)

// Config contains configuration for the store.
type Config struct {
	// Driver selects the database/sql driver.
	// Default: "sqlite"
	Driver string

	// DSN is the database file path for the SQLite drivers, or the
	// connection URL for postgres.
	// Default: "data/riskengine.db"
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for the SQLite drivers.
	// Default: true
	WALMode bool

	// BusyTimeout is how long a SQLite connection waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// PersistMaxRetries bounds retries of a persist transaction that hit a
	// transient conflict.
	// Default: 5
	PersistMaxRetries int

	// RetryBackoff is the base delay between persist retries. Attempt n
	// waits n * RetryBackoff.
	// Default: 20 milliseconds
	RetryBackoff time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:            DriverSQLite,
		DSN:               "data/riskengine.db",
		MaxOpenConns:      10,
		MaxIdleConns:      5,
		WALMode:           true,
		BusyTimeout:       5 * time.Second,
		PersistMaxRetries: 5,
		RetryBackoff:      20 * time.Millisecond,
	}
}

// backend returns the backend family of the configured driver.
func (c *Config) backend() string {
	if c.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// dataSourceName returns the driver-specific DSN carrying the SQLite
// pragmas, so every pooled connection gets them.
func (c *Config) dataSourceName() (string, error) {
	busyMs := c.BusyTimeout.Milliseconds()

	switch c.Driver {
	case DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_txlock=immediate", c.DSN, busyMs)
		if c.WALMode {
			dsn += "&_pragma=journal_mode(WAL)"
		}
		return dsn, nil
	case DriverSQLite3:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_txlock=immediate", c.DSN, busyMs)
		if c.WALMode {
			dsn += "&_journal_mode=WAL"
		}
		return dsn, nil
	case DriverPostgres:
		return c.DSN, nil
	}
	return "", fmt.Errorf("unsupported driver %q", c.Driver)
}
