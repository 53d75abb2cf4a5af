package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/georegions/regions/internal/database"
	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
)

// PostgresRegionRepository implements RegionRepository using PostgreSQL.
type PostgresRegionRepository struct {
	pool *database.Pool
}

var (
	_ RegionRepository = (*PostgresRegionRepository)(nil)
	_ Importer         = (*PostgresRegionRepository)(nil)
)

// NewPostgresRegionRepository creates a new PostgreSQL-backed region repository.
func NewPostgresRegionRepository(pool *database.Pool) *PostgresRegionRepository {
	return &PostgresRegionRepository{pool: pool}
}

// Import inserts countries and regions that are not stored yet and returns
// the number of regions inserted. Existing rows are left untouched.
func (r *PostgresRegionRepository) Import(ctx context.Context, countries []models.Country, regions []models.Region) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "import", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range countries {
		batch.Queue(`INSERT INTO countries (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`, c.Code, c.Name)
	}
	for _, rg := range regions {
		batch.Queue(`
			INSERT INTO regions (id, name, name_folded, code, country_code)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			rg.ID, rg.Name, query.Fold(rg.Name), rg.Code, rg.Country.Code)
	}

	results := tx.SendBatch(ctx, batch)

	for _, c := range countries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to import country %q: %w", c.Code, err)
		}
	}

	inserted := 0
	for _, rg := range regions {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to import region %d: %w", rg.ID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to import regions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return inserted, nil
}

// List returns the page of regions selected by q. The count and the page
// are read from one snapshot.
func (r *PostgresRegionRepository) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "list", time.Since(start)) }()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	where, args := filterClause(q.Filter, dollar, "strpos")

	var total int
	if err := tx.QueryRow(ctx, countSQL(where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count regions: %w", err)
	}

	items := []models.Region{}
	if lo, hi := q.Window(total); hi > lo {
		rows, err := tx.Query(ctx, pageSQL(where, dollar, len(args)), append(args, hi-lo, lo)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list regions: %w", err)
		}
		items, err = pgx.CollectRows(rows, scanRegionRow)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	return models.NewPage(total, items), nil
}

func scanRegionRow(row pgx.CollectableRow) (models.Region, error) {
	var rg models.Region
	err := row.Scan(&rg.ID, &rg.Name, &rg.Code, &rg.Country.Name, &rg.Country.Code)
	return rg, err
}

// HealthCheck verifies the database connection is healthy.
func (r *PostgresRegionRepository) HealthCheck(ctx context.Context) error {
	return r.pool.HealthCheck(ctx)
}
