package errs

import (
	"fmt"
	"net/http"
)

// ErrCode represents a code in the system.
type ErrCode struct {
	value int
}

// Value returns the integer value of the code.
func (ec ErrCode) Value() int {
	return ec.value
}

// String returns the string representation of the code.
func (ec ErrCode) String() string {
	return codeNames[ec]
}

// UnmarshalText implement the unmarshal interface for JSON conversions.
func (ec *ErrCode) UnmarshalText(data []byte) error {
	errName := string(data)

	v, exists := codeNumbers[errName]
	if !exists {
		return fmt.Errorf("err code %q does not exist", errName)
	}

	*ec = v

	return nil
}

// MarshalText implement the marshal interface for JSON conversions.
func (ec ErrCode) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// Set of error codes.
var (
	OK                 = ErrCode{value: 0}
	Canceled           = ErrCode{value: 1}
	Unknown            = ErrCode{value: 2}
	InvalidArgument    = ErrCode{value: 3}
	DeadlineExceeded   = ErrCode{value: 4}
	NotFound           = ErrCode{value: 5}
	AlreadyExists      = ErrCode{value: 6}
	PermissionDenied   = ErrCode{value: 7}
	ResourceExhausted  = ErrCode{value: 8}
	FailedPrecondition = ErrCode{value: 9}
	Aborted            = ErrCode{value: 10}
	OutOfRange         = ErrCode{value: 11}
	Unimplemented      = ErrCode{value: 12}
	Internal           = ErrCode{value: 13}
	Unavailable        = ErrCode{value: 14}
	DataLoss           = ErrCode{value: 15}
	Unauthenticated    = ErrCode{value: 16}
	InternalOnlyLog    = ErrCode{value: 17}
)

var codeNames = map[ErrCode]string{
	OK:                 "ok",
	Canceled:           "canceled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid_argument",
	DeadlineExceeded:   "deadline_exceeded",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	PermissionDenied:   "permission_denied",
	ResourceExhausted:  "resource_exhausted",
	FailedPrecondition: "failed_precondition",
	Aborted:            "aborted",
	OutOfRange:         "out_of_range",
	Unimplemented:      "unimplemented",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data_loss",
	Unauthenticated:    "unauthenticated",
	InternalOnlyLog:    "internal",
}

var codeNumbers = map[string]ErrCode{
	"ok":                  OK,
	"canceled":            Canceled,
	"unknown":             Unknown,
	"invalid_argument":    InvalidArgument,
	"deadline_exceeded":   DeadlineExceeded,
	"not_found":           NotFound,
	"already_exists":      AlreadyExists,
	"permission_denied":   PermissionDenied,
	"resource_exhausted":  ResourceExhausted,
	"failed_precondition": FailedPrecondition,
	"aborted":             Aborted,
	"out_of_range":        OutOfRange,
	"unimplemented":       Unimplemented,
	"internal":            Internal,
	"unavailable":         Unavailable,
	"data_loss":           DataLoss,
	"unauthenticated":     Unauthenticated,
}

var httpStatus = map[ErrCode]int{
	OK:                 http.StatusOK,
	Canceled:           http.StatusGatewayTimeout,
	Unknown:            http.StatusInternalServerError,
	InvalidArgument:    http.StatusBadRequest,
	DeadlineExceeded:   http.StatusGatewayTimeout,
	NotFound:           http.StatusNotFound,
	AlreadyExists:      http.StatusConflict,
	PermissionDenied:   http.StatusForbidden,
	ResourceExhausted:  http.StatusTooManyRequests,
	FailedPrecondition: http.StatusBadRequest,
	Aborted:            http.StatusConflict,
	OutOfRange:         http.StatusBadRequest,
	Unimplemented:      http.StatusNotImplemented,
	Internal:           http.StatusInternalServerError,
	Unavailable:        http.StatusServiceUnavailable,
	DataLoss:           http.StatusInternalServerError,
	Unauthenticated:    http.StatusUnauthorized,
	InternalOnlyLog:    http.StatusInternalServerError,
}
