// Package query validates region listing parameters and selects pages of
// regions from an ordered collection.
package query

import (
	"errors"
	"fmt"
	"slices"
)

// Parameter names accepted by the regions listing endpoint.
const (
	ParamQ           = "q"
	ParamCountryCode = "country_code"
	ParamPage        = "page"
	ParamPageSize    = "page_size"
)

// Rules holds the enumerations and bounds the listing endpoint enforces.
type Rules struct {
	AllowedCountryCodes []string
	AllowedPageSizes    []int
	DefaultPage         int
	DefaultPageSize     int
	QMinLength          int
	QMaxLength          int
}

// DefaultRules returns the reference rules: four countries, page sizes of
// 5, 10 and 15, and search strings of 3 to 30 characters.
func DefaultRules() Rules {
	return Rules{
		AllowedCountryCodes: []string{"ru", "kg", "kz", "cz"},
		AllowedPageSizes:    []int{5, 10, 15},
		DefaultPage:         1,
		DefaultPageSize:     15,
		QMinLength:          3,
		QMaxLength:          30,
	}
}

// Validate reports inconsistent rules.
func (r Rules) Validate() error {
	if len(r.AllowedCountryCodes) == 0 {
		return errors.New("at least one country code must be allowed")
	}
	if len(r.AllowedPageSizes) == 0 {
		return errors.New("at least one page size must be allowed")
	}
	for _, size := range r.AllowedPageSizes {
		if size < 1 {
			return fmt.Errorf("page size %d must be positive", size)
		}
	}
	if !slices.Contains(r.AllowedPageSizes, r.DefaultPageSize) {
		return fmt.Errorf("default page size %d is not one of the allowed page sizes", r.DefaultPageSize)
	}
	if r.DefaultPage < 1 {
		return fmt.Errorf("default page %d must be positive", r.DefaultPage)
	}
	if r.QMinLength < 0 || r.QMinLength > r.QMaxLength {
		return fmt.Errorf("invalid q length bounds [%d, %d]", r.QMinLength, r.QMaxLength)
	}
	return nil
}

// AllowsCountryCode reports whether code is one of the allowed country codes.
func (r Rules) AllowsCountryCode(code string) bool {
	return slices.Contains(r.AllowedCountryCodes, code)
}

// AllowsPageSize reports whether size is one of the allowed page sizes.
func (r Rules) AllowsPageSize(size int) bool {
	return slices.Contains(r.AllowedPageSizes, size)
}
