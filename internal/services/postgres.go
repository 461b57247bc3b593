package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresProvider checks the PostgreSQL server behind the practice store.
// It keeps its own small database/sql pool so a saturated pgx pool does not
// hide the server state from readiness probes.
type PostgresProvider struct {
	BaseProvider
	db *sql.DB
}

// NewPostgresProvider creates a new PostgreSQL provider
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresProvider{
		BaseProvider: BaseProvider{serviceType: "postgres"},
		db:           db,
	}, nil
}

// ServerVersion returns the server_version setting
func (p *PostgresProvider) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

// HealthCheck checks if PostgreSQL is available
func (p *PostgresProvider) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresProvider) Close() error {
	return p.db.Close()
}
