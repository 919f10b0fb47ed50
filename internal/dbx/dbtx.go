// Package dbx provides tiny DB abstractions shared by repositories: a
// minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx, plus
// helpers to open and probe a connection pool.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolConfig tunes the connection pool opened by Open.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolConfig returns limits suitable for a small service.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     3 * time.Second,
	}
}

// Open opens a pool for driver/dsn, applies cfg and checks connectivity.
// SQLite is pinned to a single open connection so writers are serialized by
// the pool instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, driver, dsn string, cfg PoolConfig) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if driver == DriverSQLite {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := Ping(ctx, db, cfg.PingTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// Ping checks that a connection can be used within timeout.
// A non-positive timeout means the parent context alone bounds the call.
func Ping(parent context.Context, db *sql.DB, timeout time.Duration) error {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// ServerTime asks the database for its current timestamp. It backs the
// connectivity probe exposed over HTTP.
func ServerTime(ctx context.Context, db DBTX) (string, error) {
	var now string
	if err := db.QueryRowContext(ctx, `SELECT CURRENT_TIMESTAMP`).Scan(&now); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return now, nil
}
