// Package postgres opens the sqlx connection pool, runs the schema migrations
// and wraps units of work in transactions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const sessionTimeZone = "UTC"

type options struct {
	applicationName string
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

var defaultOptions = options{
	connMaxIdleTime: 5 * time.Minute,
	connMaxLifetime: 30 * time.Minute,
	maxIdleConns:    5,
	maxOpenConns:    25,
}

type Option func(*options)

// WithApplicationName labels the sessions in pg_stat_activity.
func WithApplicationName(name string) Option {
	return func(o *options) {
		o.applicationName = name
	}
}

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(o *options) {
		o.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		o.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		o.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// connConfig parses dsn and pins the session time zone to UTC so that date_trunc
// buckets line up with the UTC day boundaries computed by the use cases.
func connConfig(dsn string, o options) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.RuntimeParams["timezone"] = sessionTimeZone
	if o.applicationName != "" {
		cfg.RuntimeParams["application_name"] = o.applicationName
	}

	return cfg, nil
}

// New opens a pool through the pgx stdlib driver, applies the pool options and pings the database.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := connConfig(dsn, o)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse dsn: %w", op, err)
	}

	db := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")

	db.SetConnMaxIdleTime(o.connMaxIdleTime)
	db.SetConnMaxLifetime(o.connMaxLifetime)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetMaxOpenConns(o.maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	return db, nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil
// and rolled back otherwise.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	const op = "postgres.WithTx"

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("%s: failed to rollback transaction: %w", op, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
