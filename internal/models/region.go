// Package models contains domain models and entities.
package models

// Country is the country a region belongs to.
type Country struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// Region is a named sub-division of a country. Regions are read-only
// reference data.
type Region struct {
	ID      int64   `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Code    string  `json:"code" yaml:"code"`
	Country Country `json:"country" yaml:"country"`
}

// RegionFilter selects regions. Empty fields do not filter.
type RegionFilter struct {
	// Q is a case-insensitive substring of the region name.
	Q string
	// CountryCode restricts results to a single country.
	CountryCode string
}

// ListQuery is a validated request for one page of regions.
type ListQuery struct {
	Filter   RegionFilter
	Page     int
	PageSize int
}

// Window returns the half-open index range [start, end) of the page within
// a result set of total items. Pages past the end yield an empty range at
// total. The computation never overflows for large page numbers.
func (q ListQuery) Window(total int) (start, end int) {
	if total <= 0 || q.PageSize <= 0 || q.Page < 1 {
		return 0, 0
	}
	if q.Page-1 > total/q.PageSize {
		return total, total
	}

	start = (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end = start + q.PageSize
	if end > total {
		end = total
	}
	return start, end
}

// Page is one bounded slice of the filtered, ordered region set.
// Total counts all regions matching the filter regardless of pagination.
type Page struct {
	Total int      `json:"total"`
	Items []Region `json:"items"`
}

// NewPage returns a page that always encodes items as a JSON array.
func NewPage(total int, items []Region) *Page {
	if items == nil {
		items = []Region{}
	}
	return &Page{Total: total, Items: items}
}
