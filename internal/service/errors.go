// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidDataProvided    = errors.New("invalid data provided")
	ErrNoTokenIssued          = errors.New("no token issued")
	ErrForbiddenRole          = errors.New("role is not allowed to perform this operation")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrStoringTokens          = errors.New("error storing session tokens")
)
