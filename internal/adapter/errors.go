// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
	"net/http"
)

// Transport failures. Both are distinct from [*HTTPError].
var (
	ErrTimeout = errors.New("the request timed out")
	ErrNetwork = errors.New("network or CORS error: the backend could not be reached")
)

// Status sentinels unwrapped from [*HTTPError].
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrValidation          = errors.New("validation failed")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
)

// Refresh failures.
var (
	ErrNoRefreshToken     = errors.New("no refresh token stored")
	ErrIncompleteTokenSet = errors.New("refresh response is missing access, refresh or jti")
	ErrRefreshFailed      = errors.New("silent token refresh failed")
)

// HTTPError is a non-2xx response.
//
// Message is the "error" field of a JSON body, else the raw body text, else
// "HTTP <status>".
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel of the status code, or nil for statuses without
// one.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusInternalServerError:
		return ErrInternalServerError
	case http.StatusBadGateway:
		return ErrBadGateway
	default:
		return nil
	}
}
