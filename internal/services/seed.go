package services

import (
	"context"
	"fmt"

	"github.com/georegions/regions/internal/fixtures"
	"github.com/georegions/regions/internal/repository"
)

// SeedRegions imports the reference dataset into imp and returns how many
// regions were newly inserted.
func SeedRegions(ctx context.Context, imp repository.Importer) (int, error) {
	countries, err := fixtures.Countries()
	if err != nil {
		return 0, err
	}
	regions, err := fixtures.Regions()
	if err != nil {
		return 0, err
	}

	n, err := imp.Import(ctx, countries, regions)
	if err != nil {
		return 0, fmt.Errorf("failed to seed regions: %w", err)
	}
	return n, nil
}
