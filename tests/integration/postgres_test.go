//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georegions/regions/internal/database"
	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/repository"
	"github.com/georegions/regions/internal/services"
)

func seededRepository(t *testing.T) *repository.PostgresRegionRepository {
	t.Helper()
	repo := repository.NewPostgresRegionRepository(pgPool)
	_, err := services.SeedRegions(context.Background(), repo)
	require.NoError(t, err)
	return repo
}

func TestPostgres_Migrations(t *testing.T) {
	migrations, err := database.PostgresMigrations()
	require.NoError(t, err)

	m := database.NewMigrator(pgPool, migrations)

	pending, err := m.PendingMigrations(testCtx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	version, err := m.CurrentVersion(testCtx)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, version)

	n, err := m.Up(testCtx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgres_SeedIsIdempotent(t *testing.T) {
	repo := seededRepository(t)

	n, err := services.SeedRegions(testCtx, repo)
	require.NoError(t, err)
	assert.Zero(t, n)

	page, err := repo.List(testCtx, models.ListQuery{Page: 1, PageSize: 15})
	require.NoError(t, err)
	assert.Equal(t, 22, page.Total)
}

func TestPostgres_MatchesMemoryBackend(t *testing.T) {
	repo := seededRepository(t)
	memory := repository.NewMemoryRegionRepository(fixtures.MustRegions())

	queries := []models.ListQuery{
		{Page: 1, PageSize: 15},
		{Page: 2, PageSize: 15},
		{Page: 3, PageSize: 10},
		{Page: 9, PageSize: 5},
		{Filter: models.RegionFilter{Q: "НОВ"}, Page: 1, PageSize: 15},
		{Filter: models.RegionFilter{Q: "ний но"}, Page: 1, PageSize: 5},
		{Filter: models.RegionFilter{Q: "край", CountryCode: "cz"}, Page: 1, PageSize: 5},
		{Filter: models.RegionFilter{CountryCode: "ru"}, Page: 2, PageSize: 5},
		{Filter: models.RegionFilter{Q: "zzz"}, Page: 1, PageSize: 5},
	}

	for _, q := range queries {
		want, err := memory.List(testCtx, q)
		require.NoError(t, err)

		got, err := repo.List(testCtx, q)
		require.NoError(t, err)

		assert.Equal(t, want, got, "query %+v", q)
	}
}

func TestPostgres_ServiceValidation(t *testing.T) {
	svc := services.NewRegionService(seededRepository(t), query.NewParser(query.DefaultRules(), query.English))

	_, err := svc.List(testCtx, map[string][]string{"page": {"0"}})
	verr, ok := query.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, query.ReasonPageNotPositive, verr.Reason)
}

func TestPostgres_HealthCheck(t *testing.T) {
	assert.NoError(t, repository.NewPostgresRegionRepository(pgPool).HealthCheck(testCtx))
	assert.NoError(t, pgPool.HealthCheck(testCtx))
}
