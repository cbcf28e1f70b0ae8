// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by storage methods to signal well-known conditions.
// Callers should use [errors.Is] to match against these values.
var (
	// ErrKeyNotFound is returned by a [KeyValueStorage] when the requested key
	// holds no value.
	ErrKeyNotFound = errors.New("key was not found")

	// ErrTokenNotFound is returned by [TokenStore] when no session token is
	// persisted in any slot (or the structured slot cannot be parsed).
	ErrTokenNotFound = errors.New("no session token stored")
)

// Low-level database operation errors. These wrap the driver error when a SQL
// operation fails before any domain logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing an INSERT or DELETE fails.
	ErrExecutingStatement = errors.New("failed to executing statement")
)
