package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
	"github.com/erickfunier/lumenq/migrations"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

			if cfg.Postgres.DSN == "" {
				return config.ErrMissingDSN
			}
			return migrate(cmd.Context(), cfg.Postgres.DSN, logger)
		},
	}
}

func migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close(context.WithoutCancel(ctx)) }()

	applied, err := migrations.Apply(ctx, conn)
	for _, name := range applied {
		logger.InfoContext(ctx, "Applied migration", slog.String("name", name))
	}
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Migrations up to date", slog.Int("applied", len(applied)))
	return nil
}
