package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options configures the connection pool
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps the leaderboard database connection
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New opens a connection, verifies it and applies pending migrations
func New(ctx context.Context, dsn string, opts Options, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "database").Logger()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Set connection pool settings
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	logger.Info().Msg("Successfully connected to database")

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	logger.Info().Msg("Database schema is up to date")

	return &DB{db: db, logger: logger}, nil
}

// Migrate applies every embedded migration not yet recorded in db
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	defer src.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	// m.Close would close db as well, so the migrator is left to the GC
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// SQL returns the underlying connection pool
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}
