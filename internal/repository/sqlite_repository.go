package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
)

// SQLiteRegionRepository implements RegionRepository on an embedded SQLite
// database, for single-node deployments without PostgreSQL.
type SQLiteRegionRepository struct {
	db *sql.DB
}

var (
	_ RegionRepository = (*SQLiteRegionRepository)(nil)
	_ Importer         = (*SQLiteRegionRepository)(nil)
)

// NewSQLiteRegionRepository creates a new SQLite-backed region repository.
func NewSQLiteRegionRepository(db *sql.DB) *SQLiteRegionRepository {
	return &SQLiteRegionRepository{db: db}
}

// Import inserts countries and regions that are not stored yet and returns
// the number of regions inserted.
func (r *SQLiteRegionRepository) Import(ctx context.Context, countries []models.Country, regions []models.Region) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("sqlite", "import", time.Since(start)) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range countries {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO countries (code, name) VALUES (?, ?)`, c.Code, c.Name); err != nil {
			return 0, fmt.Errorf("failed to import country %q: %w", c.Code, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO regions (id, name, name_folded, code, country_code)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare region import: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rg := range regions {
		res, err := stmt.ExecContext(ctx, rg.ID, rg.Name, query.Fold(rg.Name), rg.Code, rg.Country.Code)
		if err != nil {
			return 0, fmt.Errorf("failed to import region %d: %w", rg.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to import region %d: %w", rg.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return inserted, nil
}

// List returns the page of regions selected by q.
func (r *SQLiteRegionRepository) List(ctx context.Context, q models.ListQuery) (*models.Page, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("sqlite", "list", time.Since(start)) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	where, args := filterClause(q.Filter, question, "instr")

	var total int
	if err := tx.QueryRowContext(ctx, countSQL(where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count regions: %w", err)
	}

	items := []models.Region{}
	if lo, hi := q.Window(total); hi > lo {
		rows, err := tx.QueryContext(ctx, pageSQL(where, question, len(args)), append(args, hi-lo, lo)...)
		if err != nil {
			return nil, fmt.Errorf("failed to list regions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rg models.Region
			if err := rows.Scan(&rg.ID, &rg.Name, &rg.Code, &rg.Country.Name, &rg.Country.Code); err != nil {
				return nil, fmt.Errorf("failed to scan regions: %w", err)
			}
			items = append(items, rg)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan regions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	return models.NewPage(total, items), nil
}

// HealthCheck verifies the database connection is healthy.
func (r *SQLiteRegionRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
