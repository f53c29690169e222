package errs

import (
	"encoding/json"
	"errors"
	"net/http"
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// NewFieldErrors creates a field errors value with an initial entry.
func NewFieldErrors(field string, err error) FieldErrors {
	return FieldErrors{
		{
			Field: field,
			Err:   err.Error(),
		},
	}
}

// Add appends a field error to the collection.
func (fe *FieldErrors) Add(field string, err error) {
	*fe = append(*fe, FieldError{
		Field: field,
		Err:   err.Error(),
	})
}

// Encode implements the web.Encoder interface.
func (fe FieldErrors) Encode() ([]byte, string, error) {
	d, err := json.Marshal(fe)
	return d, "application/json", err
}

// HTTPStatus implements the web httpStatus interface.
func (fe FieldErrors) HTTPStatus() int {
	return http.StatusBadRequest
}

// ToError converts the field errors to an app Error.
func (fe FieldErrors) ToError() *Error {
	return New(InvalidArgument, fe)
}

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields returns the fields that failed validation.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

// IsFieldErrors checks if an error of type FieldErrors exists.
func IsFieldErrors(err error) bool {
	var fe FieldErrors
	return errors.As(err, &fe)
}

// GetFieldErrors returns a copy of the FieldErrors value.
func GetFieldErrors(err error) FieldErrors {
	var fe FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	return fe
}
