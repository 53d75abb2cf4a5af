package models

// ErrorDetail describes a failed request. ID correlates the response with
// the server logs.
type ErrorDetail struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds an error body.
func NewErrorResponse(id, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{ID: id, Message: message}}
}
