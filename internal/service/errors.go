package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrUnauthenticated    = errors.New("authentication required")
)

// FieldError is one validation message. Field is empty for form level messages.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in a submitted form
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Add appends a message for a field
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Messages flattens the collected errors
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Message)
	}
	return out
}

// OrNil returns nil when nothing was collected
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single message validation error
func Invalid(field, message string) error {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// ErrIDMismatch is returned when a submitted body names a different record than the path
var ErrIDMismatch = errors.New("id in body does not match id in path")
