package response

import (
	"fmt"
	"net/http"
)

const (
	CodeBadRequest   = http.StatusBadRequest
	CodeUnauthorized = http.StatusUnauthorized
	CodeForbidden    = http.StatusForbidden
	CodeNotFound     = http.StatusNotFound
	CodeConflict     = http.StatusConflict
	CodeBadGateway   = http.StatusBadGateway
)

// Error holds an error code, message and error itself
type Error struct {
	Code     int
	Message  interface{}
	Internal error
}

func NewError(code int, message interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) SetInternal(err error) *Error {
	e.Internal = err
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %v", e.Code, e.Message)
}

// Status maps the code to an http status, falling back to 400.
func (e *Error) Status() int {
	if text := http.StatusText(e.Code); text == "" || e.Code < http.StatusBadRequest {
		return http.StatusBadRequest
	}
	return e.Code
}
