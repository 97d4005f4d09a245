package dto

// ErrorResponse is the standardized error envelope returned by every
// endpoint on failure.
type ErrorResponse struct {
	Message string `json:"message" example:"invalid request"`
	Detail  string `json:"detail,omitempty" example:"ticker is required"`
}

// NewErrorResponse builds an ErrorResponse from a message and an optional
// underlying error.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	return resp
}
