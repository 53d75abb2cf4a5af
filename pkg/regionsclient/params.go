package regionsclient

import (
	"net/url"
	"strconv"
)

// Query parameter names of the listing endpoint.
const (
	ParamQ           = "q"
	ParamCountryCode = "country_code"
	ParamPage        = "page"
	ParamPageSize    = "page_size"
)

// Params are the raw query parameters of a listing request. A nil field is
// not sent; a non-nil field is sent verbatim, so invalid values such as
// "1.1" or "" can be expressed.
type Params struct {
	Q           *string
	CountryCode *string
	Page        *string
	PageSize    *string
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Int formats n as a parameter value.
func Int(n int) *string {
	return String(strconv.Itoa(n))
}

// Float formats f as a parameter value, e.g. 1.1 becomes "1.1".
func Float(f float64) *string {
	return String(strconv.FormatFloat(f, 'f', -1, 64))
}

// Values encodes the set fields.
func (p Params) Values() url.Values {
	v := url.Values{}
	set := func(key string, value *string) {
		if value != nil {
			v.Set(key, *value)
		}
	}
	set(ParamQ, p.Q)
	set(ParamCountryCode, p.CountryCode)
	set(ParamPage, p.Page)
	set(ParamPageSize, p.PageSize)
	return v
}

// WithPage returns a copy of p requesting page n.
func (p Params) WithPage(n int) Params {
	p.Page = Int(n)
	return p
}

// WithPageSize returns a copy of p requesting pages of size n.
func (p Params) WithPageSize(n int) Params {
	p.PageSize = Int(n)
	return p
}
