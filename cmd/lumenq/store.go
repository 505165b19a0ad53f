package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erickfunier/lumenq/internal/adapters/outbound/controlunit"
	"github.com/erickfunier/lumenq/internal/adapters/outbound/persistence"
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/erickfunier/lumenq/internal/infrastructure/database"
	"github.com/erickfunier/lumenq/migrations"
)

// store is the streetlight persistence selected by database.driver
type store struct {
	Streetlights streetlight.Repository
	Scopes       worker.ScopeProvider[streetlight.UnitOfWork]
	close        func()
}

func (s *store) Close() {
	if s.close != nil {
		s.close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		repo := persistence.NewMemoryStreetlightRepository(persistence.SeedStreetlights()...)
		return &store{
			Streetlights: repo,
			Scopes:       persistence.NewMemoryScopeProvider(repo),
		}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Connected to SQLite", slog.String("path", cfg.SQLite.Path))
		return &store{
			Streetlights: persistence.NewSQLiteStreetlightRepository(db),
			Scopes:       persistence.NewSQLiteScopeProvider(db),
			close:        closeSQL(db, logger),
		}, nil

	case config.DriverPostgres:
		conn, err := database.NewPostgresConnection(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		applied, err := migrations.Apply(ctx, conn.Pool)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.InfoContext(ctx, "Connected to Postgres", slog.Any("migrationsApplied", applied))
		return &store{
			Streetlights: persistence.NewPostgresStreetlightRepository(conn.Pool),
			Scopes:       persistence.NewPostgresScopeProvider(conn.Pool),
			close:        conn.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Database.Driver)
	}
}

func closeSQL(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close SQLite", slog.String("error", err.Error()))
		}
	}
}

// newControlUnit publishes over Redis when it is configured and falls back to
// the simulated unit otherwise.
func newControlUnit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (streetlight.ControlUnit, func(), error) {
	if !cfg.Redis.Enabled() {
		logger.InfoContext(ctx, "Using simulated control unit",
			slog.Bool("failureSimulation", cfg.Simulation.Enabled),
			slog.Float64("failureRate", cfg.Simulation.FailureRate),
		)
		return controlunit.NewSimulatedControlUnit(cfg.Simulation), func() {}, nil
	}

	conn, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.InfoContext(ctx, "Connected to Redis", slog.String("channel", cfg.Redis.Channel))

	closeRedis := func() {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close Redis", slog.String("error", err.Error()))
		}
	}
	return controlunit.NewRedisControlUnit(conn.Client, cfg.Redis.Channel), closeRedis, nil
}
