// Package errs provides types and support related to web error functionality.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
)

// Error represents an error in the system.
type Error struct {
	Code     ErrCode `json:"code"`
	Message  string  `json:"message"`
	FuncName string  `json:"-"`
	FileName string  `json:"-"`
}

// New constructs an error based on an app error.
func New(code ErrCode, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Newf constructs an error based on an error format string.
func Newf(code ErrCode, format string, v ...any) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Errorf is an alias for Newf kept for call site readability.
func Errorf(code ErrCode, format string, v ...any) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewError passes an existing Error through or wraps any other error as an
// internal one.
func NewError(err error) *Error {
	var er *Error
	if errors.As(err, &er) {
		return er
	}

	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     Internal,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Encode implements the web.Encoder interface.
func (e *Error) Encode() ([]byte, string, error) {
	type payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	data, err := json.Marshal(payload{
		Code:    e.Code.String(),
		Message: e.Message,
	})

	return data, "application/json", err
}

// HTTPStatus implements the web httpStatus interface.
func (e *Error) HTTPStatus() int {
	return httpStatus[e.Code]
}

// Equal provides support for the go-cmp package and testing.
func (e *Error) Equal(e2 *Error) bool {
	return e.Code == e2.Code && e.Message == e2.Message
}

// IsError tests the concrete error is of the Error type.
func IsError(err error) bool {
	var er *Error
	return errors.As(err, &er)
}

// GetError returns a copy of the Error pointer.
func GetError(err error) *Error {
	var er *Error
	if !errors.As(err, &er) {
		return &Error{}
	}
	return er
}
