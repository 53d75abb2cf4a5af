package repository

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georegions/regions/internal/config"
	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/models"
)

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_POSTGRES") != "true" {
		t.Skip("Skipping: TEST_POSTGRES not set. Run with docker-compose up -d")
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func testDBConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            5432,
		User:            getEnvOrDefault("DB_USER", "regions"),
		Password:        getEnvOrDefault("DB_PASSWORD", "regions_dev_password"),
		DBName:          getEnvOrDefault("DB_NAME", "regions"),
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func regionIDs(page *models.Page) []int64 {
	out := make([]int64, 0, len(page.Items))
	for _, r := range page.Items {
		out = append(out, r.ID)
	}
	return out
}

// runListContract checks a repository seeded with the reference fixtures.
func runListContract(t *testing.T, repo RegionRepository) {
	t.Helper()
	ctx := context.Background()

	tests := []struct {
		name      string
		query     models.ListQuery
		wantTotal int
		wantIDs   []int64
	}{
		{
			name:      "first page",
			query:     models.ListQuery{Page: 1, PageSize: 5},
			wantTotal: 22,
			wantIDs:   []int64{1, 2, 3, 4, 5},
		},
		{
			name:      "last partial page",
			query:     models.ListQuery{Page: 3, PageSize: 10},
			wantTotal: 22,
			wantIDs:   []int64{21, 22},
		},
		{
			name:      "past the end",
			query:     models.ListQuery{Page: 4, PageSize: 10},
			wantTotal: 22,
			wantIDs:   []int64{},
		},
		{
			name:      "far past the end",
			query:     models.ListQuery{Page: 1 << 40, PageSize: 15},
			wantTotal: 22,
			wantIDs:   []int64{},
		},
		{
			name:      "last representable page",
			query:     models.ListQuery{Page: math.MaxInt, PageSize: 15},
			wantTotal: 22,
			wantIDs:   []int64{},
		},
		{
			name:      "replacement character matches nothing",
			query:     models.ListQuery{Filter: models.RegionFilter{Q: "\uFFFDнов"}, Page: 1, PageSize: 15},
			wantTotal: 0,
			wantIDs:   []int64{},
		},
		{
			name:      "case-insensitive search",
			query:     models.ListQuery{Filter: models.RegionFilter{Q: "НОВ"}, Page: 1, PageSize: 15},
			wantTotal: 3,
			wantIDs:   []int64{3, 6, 8},
		},
		{
			name:      "search across a space",
			query:     models.ListQuery{Filter: models.RegionFilter{Q: "ний но"}, Page: 1, PageSize: 15},
			wantTotal: 1,
			wantIDs:   []int64{8},
		},
		{
			name:      "search without matches",
			query:     models.ListQuery{Filter: models.RegionFilter{Q: strings.Repeat("a", 30)}, Page: 1, PageSize: 15},
			wantTotal: 0,
			wantIDs:   []int64{},
		},
		{
			name:      "country",
			query:     models.ListQuery{Filter: models.RegionFilter{CountryCode: "kg"}, Page: 1, PageSize: 15},
			wantTotal: 4,
			wantIDs:   []int64{5, 11, 16, 21},
		},
		{
			name:      "country and search",
			query:     models.ListQuery{Filter: models.RegionFilter{Q: "область", CountryCode: "kz"}, Page: 1, PageSize: 5},
			wantTotal: 3,
			wantIDs:   []int64{13, 17, 22},
		},
		{
			name:      "country second page",
			query:     models.ListQuery{Filter: models.RegionFilter{CountryCode: "ru"}, Page: 2, PageSize: 5},
			wantTotal: 10,
			wantIDs:   []int64{10, 12, 15, 18, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantIDs, regionIDs(page))
			assert.NotNil(t, page.Items)
		})
	}

	t.Run("items carry their country", func(t *testing.T) {
		page, err := repo.List(ctx, models.ListQuery{Filter: models.RegionFilter{CountryCode: "cz"}, Page: 1, PageSize: 5})
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, models.Region{
			ID:      7,
			Name:    "Прага",
			Code:    "10",
			Country: models.Country{Name: "Чехия", Code: "cz"},
		}, page.Items[0])
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := repo.List(ctx, models.ListQuery{Page: 0, PageSize: 5})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.HealthCheck(ctx))
	})
}

// runImportContract seeds repo with the reference fixtures twice and checks
// the second import is a no-op.
func runImportContract(t *testing.T, repo Importer) {
	t.Helper()
	ctx := context.Background()

	countries, err := fixtures.Countries()
	require.NoError(t, err)
	regions, err := fixtures.Regions()
	require.NoError(t, err)

	inserted, err := repo.Import(ctx, countries, regions)
	require.NoError(t, err)
	assert.Equal(t, len(regions), inserted)

	inserted, err = repo.Import(ctx, countries, regions)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}
