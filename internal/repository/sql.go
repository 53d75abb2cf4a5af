package repository

import (
	"fmt"
	"strings"

	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/internal/query"
)

// placeholder renders the n-th (1-based) bind parameter of a SQL dialect.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// filterClause builds the WHERE clause for f over the regions table aliased
// as r. substr is the dialect's substring-position function.
func filterClause(f models.RegionFilter, ph placeholder, substr string) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.CountryCode != "" {
		args = append(args, f.CountryCode)
		conds = append(conds, "r.country_code = "+ph(len(args)))
	}
	if f.Q != "" {
		args = append(args, query.Fold(f.Q))
		conds = append(conds, fmt.Sprintf("%s(r.name_folded, %s) > 0", substr, ph(len(args))))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// countSQL and pageSQL return the statements used by the SQL backends.
func countSQL(where string) string {
	return "SELECT COUNT(*) FROM regions r" + where
}

func pageSQL(where string, ph placeholder, argc int) string {
	return `SELECT r.id, r.name, r.code, c.name, c.code
		FROM regions r
		JOIN countries c ON c.code = r.country_code` + where + `
		ORDER BY r.id
		LIMIT ` + ph(argc+1) + ` OFFSET ` + ph(argc+2)
}
