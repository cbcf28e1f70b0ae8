// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import "errors"

var (
	// ErrStreamRejected marks a permanent failure: the server answered with a
	// non-2xx status or a content type other than text/event-stream. The
	// transport does not reconnect after it.
	ErrStreamRejected = errors.New("event stream rejected")

	// ErrStreamClosed is reported when the server ends the stream.
	ErrStreamClosed = errors.New("event stream closed by server")

	// ErrStreamTransport wraps connection and read failures.
	ErrStreamTransport = errors.New("event stream transport error")

	// ErrHandlerPanic wraps a value recovered from a panicking handler.
	ErrHandlerPanic = errors.New("realtime handler panicked")

	// ErrMalformedEvent is attached to Unknown events whose payload did not
	// match the schema of their named type.
	ErrMalformedEvent = errors.New("malformed event payload")
)
