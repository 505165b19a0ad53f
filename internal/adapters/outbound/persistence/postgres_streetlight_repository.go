package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStreetlightRepository implements streetlight.Repository using PostgreSQL
type PostgresStreetlightRepository struct {
	db PgxQuerier
}

// NewPostgresStreetlightRepository creates a new PostgreSQL streetlight repository
func NewPostgresStreetlightRepository(db PgxQuerier) *PostgresStreetlightRepository {
	return &PostgresStreetlightRepository{db: db}
}

func (r *PostgresStreetlightRepository) List(ctx context.Context) ([]*streetlight.Streetlight, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, latitude, longitude, lumens, updated_at
         FROM streetlights
         ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lights []*streetlight.Streetlight
	for rows.Next() {
		light := &streetlight.Streetlight{}
		if err := rows.Scan(&light.ID, &light.Position.Lat, &light.Position.Long, &light.Lumens, &light.UpdatedAt); err != nil {
			return nil, err
		}
		lights = append(lights, light)
	}

	return lights, rows.Err()
}

func (r *PostgresStreetlightRepository) GetByID(ctx context.Context, id int64) (*streetlight.Streetlight, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, latitude, longitude, lumens, updated_at
         FROM streetlights WHERE id = $1`, id)

	light := &streetlight.Streetlight{}
	err := row.Scan(&light.ID, &light.Position.Lat, &light.Position.Long, &light.Lumens, &light.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, streetlight.ErrStreetlightNotFound
	}
	if err != nil {
		return nil, err
	}

	return light, nil
}

func (r *PostgresStreetlightRepository) Create(ctx context.Context, light *streetlight.Streetlight) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO streetlights (latitude, longitude, lumens, updated_at)
         VALUES ($1, $2, $3, $4)
         RETURNING id`,
		light.Position.Lat, light.Position.Long, light.Lumens, light.UpdatedAt,
	).Scan(&light.ID)
}

func (r *PostgresStreetlightRepository) Update(ctx context.Context, light *streetlight.Streetlight) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE streetlights SET latitude=$1, longitude=$2, lumens=$3, updated_at=$4
         WHERE id=$5`,
		light.Position.Lat, light.Position.Long, light.Lumens, light.UpdatedAt, light.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return streetlight.ErrStreetlightNotFound
	}
	return nil
}

// PostgresScopeProvider opens one transaction per job. The transaction is
// committed when the handler succeeds and rolled back otherwise.
type PostgresScopeProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresScopeProvider creates a scope provider over pool
func NewPostgresScopeProvider(pool *pgxpool.Pool) *PostgresScopeProvider {
	return &PostgresScopeProvider{pool: pool}
}

// Open implements worker.ScopeProvider
func (p *PostgresScopeProvider) Open(ctx context.Context) (streetlight.UnitOfWork, worker.Release, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return streetlight.UnitOfWork{}, nil, fmt.Errorf("begin transaction: %w", err)
	}

	uow := streetlight.UnitOfWork{
		Streetlights: NewPostgresStreetlightRepository(tx),
	}
	release := func(ctx context.Context, jobErr error) error {
		if jobErr != nil {
			if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				return fmt.Errorf("rollback transaction: %w", err)
			}
			return nil
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}

	return uow, release, nil
}
