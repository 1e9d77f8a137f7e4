package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`      // field level validation messages
	RedirectTo string      `json:"redirect_to,omitempty"` // where the client should navigate next
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Redirect returns a success response telling the client where to go next
func Redirect(statusCode int, data interface{}, to string) Response {
	res := Success(statusCode, data)
	res.RedirectTo = to
	return res
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Invalid returns an error response carrying validation messages and the echoed input
func Invalid(statusCode int, err string, errors interface{}, input interface{}) Response {
	res := Error(statusCode, err)
	res.Errors = errors
	res.Data = input
	return res
}
