package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
)

// DefaultPagePrefix namespaces region page keys.
const DefaultPagePrefix = "regions:page:"

// PageCacher stores listing results keyed by the query that produced them.
type PageCacher interface {
	Get(ctx context.Context, q models.ListQuery) (*models.Page, error)
	Set(ctx context.Context, q models.ListQuery, page *models.Page) error
	Invalidate(ctx context.Context) error
	Ping(ctx context.Context) error
}

var _ PageCacher = (*PageCache)(nil)

// PageCache caches region pages as JSON.
type PageCache struct {
	cache  Cache
	prefix string
	ttl    time.Duration
}

// NewPageCache creates a page cache on top of cache.
func NewPageCache(cache Cache, prefix string, ttl time.Duration) *PageCache {
	if prefix == "" {
		prefix = DefaultPagePrefix
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PageCache{cache: cache, prefix: prefix, ttl: ttl}
}

// Key returns the cache key for q. Queries that differ only in the case of
// q share a key since they select the same regions.
func (c *PageCache) Key(q models.ListQuery) string {
	d := xxhash.New()
	_, _ = d.WriteString(query.Fold(q.Filter.Q))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(q.Filter.CountryCode)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strconv.Itoa(q.Page))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strconv.Itoa(q.PageSize))
	return c.prefix + strconv.FormatUint(d.Sum64(), 16)
}

// Get returns the cached page for q or ErrCacheMiss.
func (c *PageCache) Get(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	data, err := c.cache.Get(ctx, c.Key(q))
	if err != nil {
		return nil, err
	}

	var page models.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return models.NewPage(page.Total, page.Items), nil
}

// Set stores page as the result of q.
func (c *PageCache) Set(ctx context.Context, q models.ListQuery, page *models.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	return c.cache.Set(ctx, c.Key(q), data, c.ttl)
}

// Invalidate drops every cached page.
func (c *PageCache) Invalidate(ctx context.Context) error {
	_, err := c.cache.DeletePrefix(ctx, c.prefix)
	return err
}

// Ping checks if the cache is healthy.
func (c *PageCache) Ping(ctx context.Context) error {
	return c.cache.Ping(ctx)
}
