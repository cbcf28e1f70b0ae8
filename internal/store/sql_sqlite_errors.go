// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrorClassification is the result type returned by
// [ErrorClassificator.Classify]. It indicates whether a failed database
// operation should be retried or abandoned.
type ErrorClassification int

const (
	// NonRetryable indicates that the failed operation should not be retried.
	// This is the default classification for unrecognised errors.
	NonRetryable ErrorClassification = iota

	// Retryable indicates that the failed operation may succeed if attempted
	// again, e.g. after another process released its lock on the file.
	Retryable
)

// ErrorClassificator decides whether a driver error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// SQLiteErrorClassifier implements [ErrorClassificator] for go-sqlite3.
type SQLiteErrorClassifier struct{}

// NewSQLiteErrorClassifier constructs a [SQLiteErrorClassifier].
func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

// Classify unwraps err as a sqlite3.Error and maps its primary result code.
// SQLITE_BUSY and SQLITE_LOCKED are retryable: another process (a second CLI
// invocation, for instance) holds the database file. Everything else,
// including constraint violations and I/O errors, is [NonRetryable].
func (c *SQLiteErrorClassifier) Classify(err error) ErrorClassification {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return NonRetryable
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return Retryable
	}
	return NonRetryable
}
