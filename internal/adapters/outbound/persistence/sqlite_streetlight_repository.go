package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
)

// SQLQuerier is satisfied by both *sql.DB and *sql.Tx
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStreetlightRepository implements streetlight.Repository using SQLite.
// Timestamps are stored as RFC3339 text.
type SQLiteStreetlightRepository struct {
	db SQLQuerier
}

// NewSQLiteStreetlightRepository creates a new SQLite streetlight repository
func NewSQLiteStreetlightRepository(db SQLQuerier) *SQLiteStreetlightRepository {
	return &SQLiteStreetlightRepository{db: db}
}

func (r *SQLiteStreetlightRepository) List(ctx context.Context) ([]*streetlight.Streetlight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, latitude, longitude, lumens, updated_at FROM streetlights ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lights []*streetlight.Streetlight
	for rows.Next() {
		light, err := scanSQLiteStreetlight(rows)
		if err != nil {
			return nil, err
		}
		lights = append(lights, light)
	}

	return lights, rows.Err()
}

func (r *SQLiteStreetlightRepository) GetByID(ctx context.Context, id int64) (*streetlight.Streetlight, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, latitude, longitude, lumens, updated_at FROM streetlights WHERE id = ?`, id)

	light, err := scanSQLiteStreetlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, streetlight.ErrStreetlightNotFound
	}
	if err != nil {
		return nil, err
	}

	return light, nil
}

func (r *SQLiteStreetlightRepository) Create(ctx context.Context, light *streetlight.Streetlight) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO streetlights (latitude, longitude, lumens, updated_at) VALUES (?, ?, ?, ?)`,
		light.Position.Lat, light.Position.Long, light.Lumens, light.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	light.ID = id
	return nil
}

func (r *SQLiteStreetlightRepository) Update(ctx context.Context, light *streetlight.Streetlight) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE streetlights SET latitude = ?, longitude = ?, lumens = ?, updated_at = ? WHERE id = ?`,
		light.Position.Lat, light.Position.Long, light.Lumens, light.UpdatedAt.UTC().Format(time.RFC3339Nano), light.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return streetlight.ErrStreetlightNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteStreetlight(row rowScanner) (*streetlight.Streetlight, error) {
	light := &streetlight.Streetlight{}
	var updatedAt string
	if err := row.Scan(&light.ID, &light.Position.Lat, &light.Position.Long, &light.Lumens, &updatedAt); err != nil {
		return nil, err
	}

	if updatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
		}
		light.UpdatedAt = ts
	}
	return light, nil
}

// SQLiteScopeProvider opens one *sql.Tx per job
type SQLiteScopeProvider struct {
	db *sql.DB
}

// NewSQLiteScopeProvider creates a scope provider over db
func NewSQLiteScopeProvider(db *sql.DB) *SQLiteScopeProvider {
	return &SQLiteScopeProvider{db: db}
}

// Open implements worker.ScopeProvider.
// database/sql rolls a transaction back when its context ends, so the
// transaction outlives the job's cancellation and only release decides its
// fate. Queries inside the handler still observe the job's context.
func (p *SQLiteScopeProvider) Open(ctx context.Context) (streetlight.UnitOfWork, worker.Release, error) {
	tx, err := p.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return streetlight.UnitOfWork{}, nil, fmt.Errorf("begin transaction: %w", err)
	}

	uow := streetlight.UnitOfWork{
		Streetlights: NewSQLiteStreetlightRepository(tx),
	}
	release := func(_ context.Context, jobErr error) error {
		if jobErr != nil {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				return fmt.Errorf("rollback transaction: %w", err)
			}
			return nil
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}

	return uow, release, nil
}
