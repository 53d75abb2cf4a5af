package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Messages are the user-facing validation message templates. Templates that
// mention a bound take an int; templates that list allowed values take the
// comma-separated list.
type Messages struct {
	QTooShort             string
	QTooLong              string
	CountryCodeNotAllowed string
	PageNotInteger        string
	PageNotPositive       string
	PageSizeNotInteger    string
	PageSizeNotAllowed    string
}

// English is the default message catalog.
var English = Messages{
	QTooShort:             "q must be at least %d characters",
	QTooLong:              "q must be at most %d characters",
	CountryCodeNotAllowed: "country_code must be one of: %s",
	PageNotInteger:        "page must be an integer",
	PageNotPositive:       "page must be greater than 0",
	PageSizeNotInteger:    "page_size must be an integer",
	PageSizeNotAllowed:    "page_size must be one of: %s",
}

// Russian is the catalog served by the reference deployment.
var Russian = Messages{
	QTooShort:             "Параметр 'q' должен быть не менее %d символов",
	QTooLong:              "Параметр 'q' должен быть не более %d символов",
	CountryCodeNotAllowed: "Параметр 'country_code' может быть одним из следующих значений: %s",
	PageNotInteger:        "Параметр 'page' должен быть целым числом",
	PageNotPositive:       "Параметр 'page' должен быть больше 0",
	PageSizeNotInteger:    "Параметр 'page_size' должен быть целым числом",
	PageSizeNotAllowed:    "Параметр 'page_size' может быть одним из следующих значений: %s",
}

// MessagesFor returns the catalog for a locale.
func MessagesFor(locale string) (Messages, error) {
	switch strings.ToLower(locale) {
	case "", "en":
		return English, nil
	case "ru":
		return Russian, nil
	default:
		return Messages{}, fmt.Errorf("unsupported locale %q", locale)
	}
}

// Render returns the message for reason under rules.
func (m Messages) Render(reason Reason, rules Rules) string {
	switch reason {
	case ReasonQTooShort:
		return fmt.Sprintf(m.QTooShort, rules.QMinLength)
	case ReasonQTooLong:
		return fmt.Sprintf(m.QTooLong, rules.QMaxLength)
	case ReasonCountryCodeNotAllowed:
		return fmt.Sprintf(m.CountryCodeNotAllowed, strings.Join(rules.AllowedCountryCodes, ", "))
	case ReasonPageNotInteger:
		return m.PageNotInteger
	case ReasonPageNotPositive:
		return m.PageNotPositive
	case ReasonPageSizeNotInteger:
		return m.PageSizeNotInteger
	case ReasonPageSizeNotAllowed:
		return fmt.Sprintf(m.PageSizeNotAllowed, joinInts(rules.AllowedPageSizes))
	default:
		return string(reason)
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
