package query

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/georegions/regions/internal/models"
)

// Fold returns the case-folded form of s used for name matching. Every
// storage backend compares folded names against a folded q.
func Fold(s string) string {
	// A Caser keeps state, so a fresh one is used per call.
	return cases.Fold().String(s)
}

// Matches reports whether r satisfies every non-empty field of f.
func Matches(r models.Region, f models.RegionFilter) bool {
	if f.CountryCode != "" && r.Country.Code != f.CountryCode {
		return false
	}
	if f.Q != "" && !strings.Contains(Fold(r.Name), Fold(f.Q)) {
		return false
	}
	return true
}

// Apply filters regions, orders them by id and returns the requested page.
// The input slice is not modified.
func Apply(regions []models.Region, q models.ListQuery) *models.Page {
	matched := make([]models.Region, 0, len(regions))
	for _, r := range regions {
		if Matches(r, q.Filter) {
			matched = append(matched, r)
		}
	}

	slices.SortStableFunc(matched, func(a, b models.Region) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	start, end := q.Window(len(matched))
	items := make([]models.Region, end-start)
	copy(items, matched[start:end])

	return models.NewPage(len(matched), items)
}
