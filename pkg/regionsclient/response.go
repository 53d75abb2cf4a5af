package regionsclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// HeaderRequestID carries the server-assigned request id.
const HeaderRequestID = "X-Request-ID"

// Country is the country of a region.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Region is one listed region.
type Region struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Country Country `json:"country"`
}

// Page is a successful listing body.
type Page struct {
	Total int      `json:"total"`
	Items []Region `json:"items"`
}

// IDs returns the ids of the page items in order.
func (p *Page) IDs() []int64 {
	ids := make([]int64, len(p.Items))
	for i, r := range p.Items {
		ids[i] = r.ID
	}
	return ids
}

// ErrorInfo is the error object of a failed request.
type ErrorInfo struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type errorBody struct {
	Error ErrorInfo `json:"error"`
}

// Response is a raw listing response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	pageSchema  *openapi3.Schema
	errorSchema *openapi3.Schema
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError reports a 4xx status.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// RequestID returns the X-Request-ID response header.
func (r *Response) RequestID() string {
	return r.Header.Get(HeaderRequestID)
}

// Page decodes a 200 body after validating it against the page schema.
func (r *Response) Page() (*Page, error) {
	if r.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, r.StatusCode, r.Body)
	}
	if err := validate(r.Body, r.pageSchema); err != nil {
		return nil, fmt.Errorf("page body does not match schema: %w", err)
	}

	var page Page
	if err := json.Unmarshal(r.Body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	return &page, nil
}

// ErrorInfo decodes a non-2xx body after validating it against the error
// schema.
func (r *Response) ErrorInfo() (*ErrorInfo, error) {
	if r.IsSuccess() {
		return nil, fmt.Errorf("%w %d: expected an error response", ErrUnexpectedStatus, r.StatusCode)
	}
	if err := validate(r.Body, r.errorSchema); err != nil {
		return nil, fmt.Errorf("error body does not match schema: %w", err)
	}

	var body errorBody
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode error: %w", err)
	}
	return &body.Error, nil
}

func validate(body []byte, schema *openapi3.Schema) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if schema == nil {
		return nil
	}
	return schema.VisitJSON(value)
}
