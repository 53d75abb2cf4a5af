// Package repository handles region storage.
package repository

import (
	"context"
	"errors"

	"github.com/georegions/regions/internal/models"
)

// ErrInvalidQuery is returned for a query that cannot be windowed, such as a
// non-positive page size. Validated queries never trigger it.
var ErrInvalidQuery = errors.New("invalid list query")

// RegionRepository defines read access to regions.
type RegionRepository interface {
	// List returns the page of regions selected by q. Total counts every
	// region matching q.Filter; items are ordered by id.
	List(ctx context.Context, q models.ListQuery) (*models.Page, error)

	// HealthCheck verifies the repository is healthy.
	HealthCheck(ctx context.Context) error
}

// Importer loads reference data into a repository. Importing the same data
// twice is a no-op.
type Importer interface {
	Import(ctx context.Context, countries []models.Country, regions []models.Region) (int, error)
}

func checkQuery(q models.ListQuery) error {
	if q.Page < 1 || q.PageSize < 1 {
		return ErrInvalidQuery
	}
	return nil
}
