// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package realtime is the client side of the backend's server-push channel.
//
// The transport reads a text/event-stream response and reconnects after
// transport errors the way a browser EventSource does, honouring the
// server's retry hint and resending the last event id. Frames are decoded
// into a closed set of [Event] variants, and a [Bridge] dispatches them to
// caller-supplied [Handlers]. Handler failures are reported, never
// propagated into the stream.
package realtime

import "context"

// TokenSource supplies the access token frozen into the connection URL.
// adapter.Client satisfies it.
type TokenSource interface {
	EnsureFresh(ctx context.Context) (string, error)
}

// Observer receives stream observations, e.g. for metrics.
type Observer interface {
	// ObserveEvent records one received event of the given type.
	ObserveEvent(eventType string)

	// ObserveConnection records the stream opening (true) or closing (false).
	ObserveConnection(open bool)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(string)    {}
func (nopObserver) ObserveConnection(bool) {}
