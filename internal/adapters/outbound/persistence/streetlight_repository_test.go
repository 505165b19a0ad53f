package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repositoryContract runs the same behaviour checks against every store
func repositoryContract(t *testing.T, repo streetlight.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("Given seeded store, When getting light 1, Then should return the seed", func(t *testing.T) {
		light, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(223), light.Lumens)
		assert.InDelta(t, -36.320320, light.Position.Lat, 1e-9)
		assert.InDelta(t, 175.485986, light.Position.Long, 1e-9)
	})

	t.Run("Given unknown id, When getting, Then should return ErrStreetlightNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 404)
		assert.ErrorIs(t, err, streetlight.ErrStreetlightNotFound)
	})

	t.Run("Given new light, When creating, Then should assign the next id and list it", func(t *testing.T) {
		light, err := streetlight.NewStreetlight(streetlight.Position{Lat: 1, Long: 2}, 50)
		require.NoError(t, err)

		require.NoError(t, repo.Create(ctx, light))

		assert.Greater(t, light.ID, int64(1))
		lights, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, lights, 2)
		assert.Equal(t, int64(1), lights[0].ID)
		assert.Equal(t, light.ID, lights[1].ID)
	})

	t.Run("Given existing light, When updating lumens, Then should persist them", func(t *testing.T) {
		light, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, light.SetLumens(900))

		require.NoError(t, repo.Update(ctx, light))

		stored, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(900), stored.Lumens)
	})

	t.Run("Given unknown light, When updating, Then should return ErrStreetlightNotFound", func(t *testing.T) {
		err := repo.Update(ctx, &streetlight.Streetlight{ID: 404})
		assert.ErrorIs(t, err, streetlight.ErrStreetlightNotFound)
	})
}

func TestMemoryStreetlightRepository(t *testing.T) {
	repositoryContract(t, NewMemoryStreetlightRepository(SeedStreetlights()...))
}

func TestMemoryStreetlightRepository_ReturnsCopies(t *testing.T) {
	// Given
	repo := NewMemoryStreetlightRepository(SeedStreetlights()...)
	light, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)

	// When
	light.Lumens = 1

	// Then
	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(223), stored.Lumens)
}

func TestSQLiteStreetlightRepository(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lumenq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repositoryContract(t, NewSQLiteStreetlightRepository(db))
}

func TestSQLiteScopeProvider(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want int64
	}{
		{
			name: "Given successful job, When releasing scope, Then should commit the change",
			in:   nil,
			want: 700,
		},
		{
			name: "Given failed job, When releasing scope, Then should roll the change back",
			in:   errors.New("handler failed"),
			want: 223,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			ctx := context.Background()
			db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "lumenq.db"))
			require.NoError(t, err)
			defer db.Close()
			provider := NewSQLiteScopeProvider(db)

			uow, release, err := provider.Open(ctx)
			require.NoError(t, err)
			light, err := uow.Streetlights.GetByID(ctx, 1)
			require.NoError(t, err)
			require.NoError(t, light.SetLumens(700))
			require.NoError(t, uow.Streetlights.Update(ctx, light))

			// When
			require.NoError(t, release(ctx, tt.in))

			// Then
			stored, err := NewSQLiteStreetlightRepository(db).GetByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Lumens)
		})
	}
}

func TestSQLiteScopeProvider_JobContextCancelledBeforeRelease(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want int64
	}{
		{
			name: "Given completed job whose context is cancelled, When releasing scope, Then should still commit",
			in:   nil,
			want: 999,
		},
		{
			name: "Given failed job whose context is cancelled, When releasing scope, Then should roll back",
			in:   context.Canceled,
			want: 223,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lumenq.db"))
			require.NoError(t, err)
			defer db.Close()
			provider := NewSQLiteScopeProvider(db)

			jobCtx, cancel := context.WithCancel(context.Background())
			defer cancel()
			uow, release, err := provider.Open(jobCtx)
			require.NoError(t, err)
			light, err := uow.Streetlights.GetByID(jobCtx, 1)
			require.NoError(t, err)
			require.NoError(t, light.SetLumens(999))
			require.NoError(t, uow.Streetlights.Update(jobCtx, light))

			// When
			cancel()
			err = release(context.WithoutCancel(jobCtx), tt.in)

			// Then
			require.NoError(t, err)
			stored, err := NewSQLiteStreetlightRepository(db).GetByID(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Lumens)
		})
	}
}

func TestSQLiteScopeProvider_QueriesObserveJobCancellation(t *testing.T) {
	// Given
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lumenq.db"))
	require.NoError(t, err)
	defer db.Close()

	jobCtx, cancel := context.WithCancel(context.Background())
	uow, release, err := NewSQLiteScopeProvider(db).Open(jobCtx)
	require.NoError(t, err)

	// When
	cancel()
	_, err = uow.Streetlights.GetByID(jobCtx, 1)

	// Then
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, release(context.WithoutCancel(jobCtx), err))
}

func TestMemoryScopeProvider(t *testing.T) {
	// Given
	repo := NewMemoryStreetlightRepository(SeedStreetlights()...)
	provider := NewMemoryScopeProvider(repo)

	// When
	uow, release, err := provider.Open(context.Background())

	// Then
	require.NoError(t, err)
	assert.Same(t, repo, uow.Streetlights)
	assert.NoError(t, release(context.Background(), errors.New("ignored")))
}
