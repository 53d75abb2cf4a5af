// Package services contains business logic.
package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
	"github.com/georegions/regions/internal/repository"
)

// RegionService lists regions from raw request parameters.
type RegionService interface {
	// List validates params and returns the selected page. Invalid
	// parameters yield a *query.ValidationError.
	List(ctx context.Context, params url.Values) (*models.Page, error)
}

// RegionServiceImpl implements RegionService.
type RegionServiceImpl struct {
	repo   repository.RegionRepository
	parser *query.Parser
}

var _ RegionService = (*RegionServiceImpl)(nil)

// NewRegionService creates a new RegionService instance.
func NewRegionService(repo repository.RegionRepository, parser *query.Parser) *RegionServiceImpl {
	return &RegionServiceImpl{repo: repo, parser: parser}
}

// List validates params and returns the selected page of regions.
func (s *RegionServiceImpl) List(ctx context.Context, params url.Values) (*models.Page, error) {
	q, err := s.parser.Parse(params)
	if err != nil {
		if verr, ok := query.AsValidationError(err); ok {
			metrics.RecordValidationFailure(verr.Param, string(verr.Reason))
		}
		return nil, err
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	metrics.RecordPageServed(len(page.Items))
	return page, nil
}
