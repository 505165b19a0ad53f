package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConnection manages PostgreSQL connection pool
type PostgresConnection struct {
	Pool *pgxpool.Pool
}

// NewPostgresConnection creates a pool for dsn and verifies it can reach the server
func NewPostgresConnection(ctx context.Context, dsn string) (*PostgresConnection, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	conn := &PostgresConnection{Pool: pool}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return conn, nil
}

// Ping verifies the connection is alive
func (p *PostgresConnection) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Close closes the connection pool
func (p *PostgresConnection) Close() {
	p.Pool.Close()
}
