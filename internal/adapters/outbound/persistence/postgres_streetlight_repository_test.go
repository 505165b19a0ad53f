package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/erickfunier/lumenq/internal/infrastructure/database"
	"github.com/erickfunier/lumenq/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres runs a throwaway Postgres container with the schema applied.
// Skipped with -short since it needs Docker.
func startPostgres(t *testing.T) *database.PostgresConnection {
	t.Helper()
	if testing.Short() {
		t.Skip("needs Docker; skipped with -short")
	}

	ctx := context.Background()
	pgCtr, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("lumenq_test"),
		tcpostgres.WithUsername("lumenq"),
		tcpostgres.WithPassword("lumenq"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgCtr.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := pgCtr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := database.NewPostgresConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	applied, err := migrations.Apply(ctx, conn.Pool)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	return conn
}

func TestPostgresStreetlightRepository(t *testing.T) {
	conn := startPostgres(t)

	repositoryContract(t, NewPostgresStreetlightRepository(conn.Pool))

	t.Run("Given applied migrations, When applying again, Then should apply nothing", func(t *testing.T) {
		applied, err := migrations.Apply(context.Background(), conn.Pool)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestPostgresScopeProvider(t *testing.T) {
	conn := startPostgres(t)
	provider := NewPostgresScopeProvider(conn.Pool)
	ctx := context.Background()

	tests := []struct {
		name string
		in   struct {
			lumens int64
			jobErr error
		}
		want int64
	}{
		{
			name: "Given failed job, When releasing scope, Then should roll the change back",
			in: struct {
				lumens int64
				jobErr error
			}{lumens: 10, jobErr: errors.New("handler failed")},
			want: 223,
		},
		{
			name: "Given successful job, When releasing scope, Then should commit the change",
			in: struct {
				lumens int64
				jobErr error
			}{lumens: 640, jobErr: nil},
			want: 640,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			uow, release, err := provider.Open(ctx)
			require.NoError(t, err)
			light, err := uow.Streetlights.GetByID(ctx, 1)
			require.NoError(t, err)
			require.NoError(t, light.SetLumens(tt.in.lumens))
			require.NoError(t, uow.Streetlights.Update(ctx, light))

			// When
			require.NoError(t, release(ctx, tt.in.jobErr))

			// Then
			stored, err := NewPostgresStreetlightRepository(conn.Pool).GetByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Lumens)
		})
	}
}
