package regionsclient

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// LastPage returns the number of the last non-empty page, or 0 when total
// is 0.
func LastPage(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// CheckPageSize verifies the page holds at most pageSize items and is empty
// once page is past the last page.
func CheckPageSize(p *Page, page, pageSize int) error {
	if len(p.Items) > pageSize {
		return fmt.Errorf("page has %d items, page_size is %d", len(p.Items), pageSize)
	}
	if page > LastPage(p.Total, pageSize) && len(p.Items) != 0 {
		return fmt.Errorf("page %d is past the last page %d but has %d items", page, LastPage(p.Total, pageSize), len(p.Items))
	}
	if page <= LastPage(p.Total, pageSize) && len(p.Items) == 0 {
		return fmt.Errorf("page %d of %d is empty", page, LastPage(p.Total, pageSize))
	}
	return nil
}

// CheckNameContains verifies every item name contains q, ignoring case.
func CheckNameContains(p *Page, q string) error {
	needle := cases.Fold().String(q)
	for _, r := range p.Items {
		if !strings.Contains(cases.Fold().String(r.Name), needle) {
			return fmt.Errorf("region %d %q does not contain %q", r.ID, r.Name, q)
		}
	}
	return nil
}

// CheckCountry verifies every item belongs to the country code.
func CheckCountry(p *Page, code string) error {
	for _, r := range p.Items {
		if r.Country.Code != code {
			return fmt.Errorf("region %d has country %q, want %q", r.ID, r.Country.Code, code)
		}
	}
	return nil
}

// CheckOrdered verifies items are in strictly increasing id order.
func CheckOrdered(p *Page) error {
	for i := 1; i < len(p.Items); i++ {
		if p.Items[i-1].ID >= p.Items[i].ID {
			return fmt.Errorf("items out of order at %d: id %d before %d", i, p.Items[i-1].ID, p.Items[i].ID)
		}
	}
	return nil
}

// CheckDisjoint verifies no region appears in more than one page.
func CheckDisjoint(pages ...*Page) error {
	seen := make(map[int64]int)
	for i, p := range pages {
		for _, r := range p.Items {
			if j, ok := seen[r.ID]; ok {
				return fmt.Errorf("region %d appears on pages %d and %d", r.ID, j+1, i+1)
			}
			seen[r.ID] = i
		}
	}
	return nil
}

// CheckSameTotal verifies every page reports the same total.
func CheckSameTotal(pages ...*Page) error {
	for i := 1; i < len(pages); i++ {
		if pages[i].Total != pages[0].Total {
			return fmt.Errorf("total changed from %d to %d", pages[0].Total, pages[i].Total)
		}
	}
	return nil
}

// Concat returns the items of pages in order.
func Concat(pages ...*Page) []Region {
	var out []Region
	for _, p := range pages {
		out = append(out, p.Items...)
	}
	return out
}

// CheckPrefixAgreement verifies the overlapping prefix of two item
// sequences matches item for item. It is used to compare the same logical
// window fetched with different page sizes.
func CheckPrefixAgreement(a, b []Region) error {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return fmt.Errorf("position %d differs: %d %q vs %d %q", i, a[i].ID, a[i].Name, b[i].ID, b[i].Name)
		}
	}
	return nil
}
