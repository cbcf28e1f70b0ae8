// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/realtime"
	"github.com/MKhiriev/amestris-client/models"
)

// WatchWorker loads the transmutation feed, keeps it reconciled with
// server-pushed changes and prints every change to out.
type WatchWorker struct {
	feed   Feed
	bridge Connector
	query  models.TransmutationQuery
	logger *logger.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewWatchWorker builds the worker. q selects the initially loaded page.
func NewWatchWorker(feed Feed, bridge Connector, q models.TransmutationQuery, out io.Writer, log *logger.Logger) *WatchWorker {
	return &WatchWorker{
		feed:   feed,
		bridge: bridge,
		query:  q,
		out:    out,
		logger: log.GetChildLogger("watch_worker"),
	}
}

// Run blocks until ctx is done. It fails when the initial load fails, when
// no connection can be opened, or when the server rejects the stream.
func (w *WatchWorker) Run(ctx context.Context) error {
	if err := w.feed.Load(ctx, w.query); err != nil {
		return err
	}
	for _, t := range w.feed.Items() {
		w.printf("  %s\n", describe(t))
	}

	rejected := make(chan error, 1)
	teardown, err := w.bridge.Connect(ctx, realtime.Handlers{
		OnOpen: func() {
			w.logger.Info().Msg("watching transmutations")
		},
		OnError: func(err error) {
			if errors.Is(err, realtime.ErrStreamRejected) {
				select {
				case rejected <- err:
				default:
				}
			}
		},
		OnTransmutationUpsert: w.upsert,
		OnTransmutationDelete: w.remove,
	})
	if err != nil {
		return err
	}
	defer teardown()

	select {
	case <-ctx.Done():
		return nil
	case err = <-rejected:
		return fmt.Errorf("watch transmutations: %w", err)
	}
}

func (w *WatchWorker) upsert(raw json.RawMessage) error {
	changed, err := w.feed.Upsert(raw)
	if err != nil || !changed {
		return err
	}

	var head struct {
		ID int64 `json:"id"`
	}
	if err = json.Unmarshal(raw, &head); err != nil {
		return err
	}
	for _, t := range w.feed.Items() {
		if t.ID == head.ID {
			w.printf("* %s\n", describe(t))
			break
		}
	}
	return nil
}

func (w *WatchWorker) remove(id int64) error {
	if w.feed.Remove(id) {
		w.printf("- #%d\n", id)
	}
	return nil
}

func (w *WatchWorker) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, format, args...)
}

func describe(t models.Transmutation) string {
	material := t.MaterialName
	if material == "" {
		material = fmt.Sprintf("material %d", t.MaterialID)
	}
	line := fmt.Sprintf("#%d %s (%s x %g)", t.ID, t.Title, material, t.QuantityUsed)
	if t.Result != nil && *t.Result != "" {
		line += ": " + *t.Result
	}
	return line
}
