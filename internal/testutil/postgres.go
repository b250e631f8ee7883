package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"forknight/internal/database"

	"github.com/go-testfixtures/testfixtures/v3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestPostgres struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
	DSN       string
	Fixtures  *testfixtures.Loader
}

// NewTestPostgres starts a PostgreSQL container with the leaderboard schema applied
func NewTestPostgres(ctx context.Context) (*TestPostgres, error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	tp := &TestPostgres{Container: pgContainer}

	// Get the container's connection details
	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tp.Close(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	tp.DSN = dsn

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		tp.Close(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	tp.DB = db

	if err := database.Migrate(db); err != nil {
		tp.Close(ctx)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Initialize fixtures loader
	_, filename, _, _ := runtime.Caller(0)
	fixturesPath := filepath.Join(filepath.Dir(filename), "fixtures")
	fixtures, err := testfixtures.New(
		testfixtures.Database(db),
		testfixtures.Dialect("postgres"),
		testfixtures.Directory(fixturesPath),
	)
	if err != nil {
		tp.Close(ctx)
		return nil, fmt.Errorf("failed to initialize fixtures: %w", err)
	}
	tp.Fixtures = fixtures

	return tp, nil
}

// Close cleans up the test database resources
func (tp *TestPostgres) Close(ctx context.Context) error {
	if tp.DB != nil {
		if err := tp.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	if tp.Container != nil {
		if err := tp.Container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}

	return nil
}

// LoadFixtures loads all fixtures into the database
func (tp *TestPostgres) LoadFixtures() error {
	return tp.Fixtures.Load()
}

// Truncate empties the given tables
func (tp *TestPostgres) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := tp.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
