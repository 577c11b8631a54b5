package httpdto

// ErrorResponse is the uniform error envelope for every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewErrorResponse(message, code string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code}
}
