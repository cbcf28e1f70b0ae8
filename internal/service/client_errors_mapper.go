// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/app"
	"github.com/MKhiriev/amestris-client/internal/validators"
)

// mapAdapterError translates the adapter's transport error into a service
// business error. The original error stays in the chain, so the server's
// message and the status sentinel remain available to callers.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)

	case errors.Is(err, adapter.ErrConflict):
		return fmt.Errorf("%w: %w", ErrEmailAlreadyRegistered, err)

	case errors.Is(err, adapter.ErrValidation):
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)

	case errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbiddenRole, err)
	}

	return err
}

// UserMessage returns the message to show the user for err, distinguishing
// timeouts from connectivity failures and conflicts from other rejections.
// Errors without a more specific message fall back to err's own text, which
// for HTTP errors is the server's message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, adapter.ErrTimeout):
		return app.MsgTimeout
	case errors.Is(err, adapter.ErrNetwork):
		return app.MsgNetworkError
	case errors.Is(err, ErrInvalidCredentials):
		return app.MsgInvalidCredentials
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return app.MsgEmailAlreadyRegistered
	case errors.Is(err, validators.ErrValidation), errors.Is(err, ErrInvalidDataProvided):
		return app.MsgInvalidDataProvided
	case errors.Is(err, ErrNoTokenIssued):
		return app.MsgNoTokenIssued
	case errors.Is(err, ErrForbiddenRole), errors.Is(err, adapter.ErrForbidden):
		return app.MsgAccessDenied
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, adapter.ErrUnauthorized):
		return app.MsgSessionExpired
	case errors.Is(err, adapter.ErrNotFound):
		return app.MsgNotFound
	}

	var httpErr *adapter.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 500 && httpErr.Message == fmt.Sprintf("HTTP %d", httpErr.StatusCode) {
		return app.MsgInternalServerError
	}

	return err.Error()
}
