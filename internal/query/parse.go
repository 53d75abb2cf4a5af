package query

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/georegions/regions/internal/models"
)

// Parser turns raw query string values into a validated ListQuery.
type Parser struct {
	rules    Rules
	messages Messages
}

// NewParser creates a Parser enforcing rules and reporting failures with
// messages.
func NewParser(rules Rules, messages Messages) *Parser {
	return &Parser{rules: rules, messages: messages}
}

// Rules returns the rules enforced by the parser.
func (p *Parser) Rules() Rules {
	return p.rules
}

// Parse validates values and returns the query they describe.
//
// Parameters are checked in the order q, country_code, page, page_size and
// the first failure is returned as a *ValidationError. A parameter is
// present when its key appears in values, even with an empty value. Only
// the first value of a repeated key is considered.
//
// Invalid UTF-8 in q is replaced with U+FFFD before its length is checked,
// so every backend compares valid text. Integers beyond the range of int are
// clamped to the nearest bound: a huge page is past the end and a huge
// page_size is not allowed.
func (p *Parser) Parse(values url.Values) (models.ListQuery, error) {
	q := models.ListQuery{
		Page:     p.rules.DefaultPage,
		PageSize: p.rules.DefaultPageSize,
	}

	if raw, ok := lookup(values, ParamQ); ok {
		raw = sanitizeText(raw)
		n := utf8.RuneCountInString(raw)
		switch {
		case n < p.rules.QMinLength:
			return models.ListQuery{}, p.fail(ParamQ, ReasonQTooShort)
		case n > p.rules.QMaxLength:
			return models.ListQuery{}, p.fail(ParamQ, ReasonQTooLong)
		}
		q.Filter.Q = raw
	}

	if raw, ok := lookup(values, ParamCountryCode); ok {
		if !p.rules.AllowsCountryCode(raw) {
			return models.ListQuery{}, p.fail(ParamCountryCode, ReasonCountryCodeNotAllowed)
		}
		q.Filter.CountryCode = raw
	}

	if raw, ok := lookup(values, ParamPage); ok {
		page, err := atoi(raw)
		if err != nil {
			return models.ListQuery{}, p.fail(ParamPage, ReasonPageNotInteger)
		}
		if page < 1 {
			return models.ListQuery{}, p.fail(ParamPage, ReasonPageNotPositive)
		}
		q.Page = page
	}

	if raw, ok := lookup(values, ParamPageSize); ok {
		size, err := atoi(raw)
		if err != nil {
			return models.ListQuery{}, p.fail(ParamPageSize, ReasonPageSizeNotInteger)
		}
		if !p.rules.AllowsPageSize(size) {
			return models.ListQuery{}, p.fail(ParamPageSize, ReasonPageSizeNotAllowed)
		}
		q.PageSize = size
	}

	return q, nil
}

func (p *Parser) fail(param string, reason Reason) *ValidationError {
	return &ValidationError{
		Param:   param,
		Reason:  reason,
		Message: p.messages.Render(reason, p.rules),
	}
}

// atoi is strconv.Atoi without the range error. Out-of-range values come
// back clamped to math.MinInt or math.MaxInt.
func atoi(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// sanitizeText makes s valid UTF-8 without NUL bytes, which PostgreSQL
// rejects in text parameters.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	return strings.ReplaceAll(s, "\x00", string(utf8.RuneError))
}

func lookup(values url.Values, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}
