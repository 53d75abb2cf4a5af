package query

import "errors"

// Reason identifies why a parameter failed validation.
type Reason string

// Validation failure reasons.
const (
	ReasonQTooShort             Reason = "q_too_short"
	ReasonQTooLong              Reason = "q_too_long"
	ReasonCountryCodeNotAllowed Reason = "country_code_not_allowed"
	ReasonPageNotInteger        Reason = "page_not_integer"
	ReasonPageNotPositive       Reason = "page_not_positive"
	ReasonPageSizeNotInteger    Reason = "page_size_not_integer"
	ReasonPageSizeNotAllowed    Reason = "page_size_not_allowed"
)

// ValidationError is returned when a listing parameter is invalid. Only the
// first failing parameter is reported.
type ValidationError struct {
	Param   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
