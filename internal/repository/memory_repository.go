package repository

import (
	"context"
	"slices"
	"time"

	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
)

// MemoryRegionRepository serves an immutable in-process snapshot.
type MemoryRegionRepository struct {
	regions []models.Region
}

var _ RegionRepository = (*MemoryRegionRepository)(nil)

// NewMemoryRegionRepository creates a repository over a copy of regions.
func NewMemoryRegionRepository(regions []models.Region) *MemoryRegionRepository {
	snapshot := slices.Clone(regions)
	slices.SortStableFunc(snapshot, func(a, b models.Region) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return &MemoryRegionRepository{regions: snapshot}
}

// List returns the page of regions selected by q.
func (r *MemoryRegionRepository) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	start := time.Now()
	page := query.Apply(r.regions, q)
	metrics.RecordDBQuery("memory", "list", time.Since(start))

	return page, nil
}

// Len returns the number of regions held.
func (r *MemoryRegionRepository) Len() int {
	return len(r.regions)
}

// HealthCheck always succeeds.
func (r *MemoryRegionRepository) HealthCheck(_ context.Context) error {
	return nil
}
