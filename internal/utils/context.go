// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, request ids,
// HTTP response writing, HTTP client initialization, JWT token generation
// and inspection, and other common operations.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// RequestIDCtxKey is the key used to store the X-Request-ID of the outbound
// request currently being performed.
var RequestIDCtxKey = contextKey("requestID")

// UserIDCtxKey is the key the fake backend uses to pass the authenticated
// user id from its auth middleware to handlers.
var UserIDCtxKey = contextKey("userID")

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDCtxKey, requestID)
}

// GetRequestIDFromContext retrieves the request id stored by WithRequestID.
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDCtxKey).(string)
	return requestID, ok
}

// GetUserIDFromContext retrieves the user identifier from the context.
//
// Returns the user ID of type int64 and an ok flag:
//   - ok == true: value is found and has the correct int64 type
//   - ok == false: value is missing or has an unexpected type
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}
