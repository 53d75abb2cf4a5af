package repository

import (
	"context"
	"errors"

	"github.com/georegions/regions/internal/cache"
	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/pkg/logger"
)

// CachedRegionRepository wraps a RegionRepository with a page cache.
// Cache failures are logged and bypassed; they never fail a listing.
type CachedRegionRepository struct {
	repo  RegionRepository
	pages cache.PageCacher
	log   *logger.Logger
}

var _ RegionRepository = (*CachedRegionRepository)(nil)

// NewCachedRegionRepository creates a new cached region repository.
func NewCachedRegionRepository(repo RegionRepository, pages cache.PageCacher, log *logger.Logger) *CachedRegionRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedRegionRepository{repo: repo, pages: pages, log: log}
}

// List returns the cached page for q, falling back to the wrapped
// repository and caching its result.
func (c *CachedRegionRepository) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	page, err := c.pages.Get(ctx, q)
	if err == nil {
		metrics.RecordCacheHit()
		return page, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		metrics.RecordCacheMiss()
	} else {
		metrics.RecordCacheError("get")
		c.log.Warn("page cache read failed", "error", err)
	}

	page, err = c.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := c.pages.Set(ctx, q, page); err != nil {
		metrics.RecordCacheError("set")
		c.log.Warn("page cache write failed", "error", err)
	}

	return page, nil
}

// Invalidate drops every cached page.
func (c *CachedRegionRepository) Invalidate(ctx context.Context) error {
	return c.pages.Invalidate(ctx)
}

// HealthCheck checks the wrapped repository. The cache is optional and does
// not affect health.
func (c *CachedRegionRepository) HealthCheck(ctx context.Context) error {
	return c.repo.HealthCheck(ctx)
}
