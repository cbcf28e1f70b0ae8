// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the client's long-lived background tasks: the
// realtime watch and the metrics endpoint.
// It defines the Worker interface and a Workers aggregate that runs several
// workers together and stops them all when one fails.
package workers

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/amestris-client/internal/realtime"
	"github.com/MKhiriev/amestris-client/models"
)

// Worker is a background task. Run blocks until ctx is done or the task
// fails. Returning nil on cancellation is expected.
//
// Example implementation:
//
//	type tick struct{}
//
//	func (tick) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// Feed is the local transmutation list kept in sync by [WatchWorker].
type Feed interface {
	Load(ctx context.Context, q models.TransmutationQuery) error
	Upsert(raw json.RawMessage) (bool, error)
	Remove(id int64) bool
	Items() []models.Transmutation
}

// Connector opens a realtime connection.
type Connector interface {
	Connect(ctx context.Context, h realtime.Handlers) (func(), error)
}
