// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import "errors"

// ErrValidation is wrapped by every error returned from a [Validator] for
// invalid input.
var ErrValidation = errors.New("validation failed")

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyEmail        = errors.New("email is required")
	ErrInvalidEmail      = errors.New("email is not a valid address")
	ErrEmptyPassword     = errors.New("password is required")
	ErrShortPassword     = errors.New("password must be at least 6 characters")
	ErrEmptyName         = errors.New("name is required")
	ErrInvalidRole       = errors.New("role must be SUPERVISOR or ALCHEMIST")
	ErrEmptyTitle        = errors.New("title is required")
	ErrInvalidMaterialID = errors.New("materialId must be positive")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNegativeQuantity  = errors.New("quantity cannot be negative")
	ErrEmptyUnit         = errors.New("unit is required")
	ErrInvalidStatus     = errors.New("unknown mission status")
)

// FieldError reports one invalid field. It matches both [ErrValidation] and
// its cause with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// Fields collects the field errors carried by err into a field -> message
// map, the shape the backend uses for its own "fields" object. It returns nil
// when err carries none.
func Fields(err error) map[string]string {
	var out map[string]string

	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case nil:
		case *FieldError:
			if out == nil {
				out = make(map[string]string)
			}
			out[e.Field] = e.Err.Error()
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)

	return out
}
