// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// amestris client.
//
// All Msg* constants are human-readable message strings shown to the user
// through the notification path or printed by the command line. Keeping them
// in one place ensures consistent wording throughout the client.
package app

const (
	// MsgInvalidDataProvided is shown when a form fails validation, either
	// locally or on the server (422).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidCredentials is shown when login is rejected with 401.
	MsgInvalidCredentials = "invalid email or password"

	// MsgEmailAlreadyRegistered is shown when registration is rejected with
	// 409 because the email is already in use.
	MsgEmailAlreadyRegistered = "this email is already registered"

	// MsgSessionExpired is shown when a request stays unauthorized after the
	// silent refresh and the session has been torn down.
	MsgSessionExpired = "your session has expired, please log in again"

	// MsgAccessDenied is shown when the current role may not perform an
	// operation.
	MsgAccessDenied = "access denied"

	// MsgNotFound is shown when the requested resource does not exist.
	MsgNotFound = "not found"

	// MsgNetworkError is shown when the backend cannot be reached at all.
	MsgNetworkError = "could not reach the server, check your connection"

	// MsgTimeout is shown when the backend did not answer in time.
	MsgTimeout = "the server took too long to respond"

	// MsgInternalServerError is shown for 5xx responses without a more
	// specific message.
	MsgInternalServerError = "internal server error"

	// MsgNoTokenIssued is shown when login or registration succeeded but the
	// response carried no token to store.
	MsgNoTokenIssued = "the server did not issue a session token"

	// MsgLoggedOut is shown after logout.
	MsgLoggedOut = "logged out"

	// MsgRealtimeEventFailed is shown when applying a server-pushed event
	// failed.
	MsgRealtimeEventFailed = "a problem occurred while showing a live update"

	// MsgTransmutationCreated and the messages below announce server-pushed
	// transmutation changes. They are format strings.
	MsgTransmutationCreated = "new transmutation #%d: %s"
	MsgTransmutationUpdated = "transmutation #%d updated: %s"
	MsgTransmutationDeleted = "transmutation deleted (ID %d)"
)
