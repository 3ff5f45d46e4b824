// Package database centralises sqlx connection helpers.  Three drivers are
// linked in:
//
//	mysql   go-sql-driver/mysql (also MariaDB)
//	pgx     jackc/pgx/v5/stdlib (Postgres)
//	sqlite  modernc.org/sqlite (pure Go, handy for single-node installs)
//
// Public entry points:
//
//	Open(ctx, driver, dsn)                   – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, opts)  – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Pings are retried with a fixed backoff because the
// database container often starts after the app in compose setups.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	// sqlx knows "sqlite3" but not modernc's "sqlite" name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options tunes the pool and the bootstrap ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int
	RetryBackoff    time.Duration
}

// DefaultOptions: 15 max open, 5 idle, and a 30-minute connection lifetime.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Retries:         3,
		RetryBackoff:    time.Second,
	}
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, DefaultOptions())
}

// OpenWithOptions opens driver/dsn, applies opts, and pings until the
// database answers or the retries run out.
func OpenWithOptions(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY under concurrent saves.
		db.SetMaxOpenConns(1)
	}

	var perr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if perr = db.PingContext(ctx); perr == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database: ping %s: %w", driver, perr)
}
