// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Names of the server-push events emitted by the realtime endpoint.
const (
	EventHello                = "hello"
	EventPing                 = "ping"
	EventTransmutationCreated = "transmutation.created"
	EventTransmutationUpdated = "transmutation.updated"
	EventTransmutationDeleted = "transmutation.deleted"
	EventMessage              = "message"
)

// RawEvent is one frame read from the event stream before typed decoding.
type RawEvent struct {
	// ID is the last "id:" field seen, used as Last-Event-ID on reconnect.
	ID string
	// Type is the "event:" field, or [EventMessage] when absent.
	Type string
	// Data is the "data:" lines joined with "\n".
	Data []byte
}
